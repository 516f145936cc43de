package segmentstore

import (
	"errors"
	"fmt"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const (
	azblobBlobNotFound = "BlobNotFound"
)

// storageErrorCode returns the azure storage error code carried by err.
func storageErrorCode(err error) (azStorageBlob.StorageErrorCode, bool) {
	var ierr *azStorageBlob.InternalError
	if !errors.As(err, &ierr) {
		return "", false
	}
	serr := &azStorageBlob.StorageError{}
	if !ierr.As(&serr) {
		return "", false
	}
	return serr.ErrorCode, true
}

// IsBlobNotFound returns true if err wraps ErrSegmentNotFound or is the azure
// sdk blob not found error.
func IsBlobNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSegmentNotFound) {
		return true
	}
	code, ok := storageErrorCode(err)
	return ok && code == azblobBlobNotFound
}

// wrapBlobNotFound translates a blob not found error for blobPath to
// ErrSegmentNotFound. Any other error is returned as is.
func wrapBlobNotFound(err error, blobPath string) error {
	if !IsBlobNotFound(err) || errors.Is(err, ErrSegmentNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %s", ErrSegmentNotFound, blobPath, err.Error())
}
