package usage

import "errors"

var (
	ErrBadValueHeader   = errors.New("usage: unexpected value record type")
	ErrStringTooLong    = errors.New("usage: string is too long")
	ErrValueTooLong     = errors.New("usage: value is too long")
	ErrBadArrayCount    = errors.New("usage: invalid array property count")
	ErrMaxDepthExceeded = errors.New("usage: maximum traversal depth exceeded")
	ErrUnalignedRecord  = errors.New("usage: root record offset is not aligned")
)
