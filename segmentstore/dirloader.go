package segmentstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-segmentusage/segment"
	"github.com/gofrs/flock"
)

// DirLoader loads segment containers from files named by segment id in a
// single directory.
type DirLoader struct {
	log  logger.Logger
	dir  string
	opts Options
	lock *flock.Flock
}

// NewDirLoader creates a loader for the store directory dir. With WithLock,
// the loader holds a shared lock on the directory until Close and fails with
// ErrStoreLocked if a writer holds it.
func NewDirLoader(log logger.Logger, dir string, opts ...Option) (*DirLoader, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPathIsNotDir, dir)
	}

	l := &DirLoader{log: log, dir: dir, opts: newOptions(opts...)}
	if !l.opts.lock {
		return l, nil
	}

	l.lock = flock.New(filepath.Join(dir, LockFileName))
	locked, err := l.lock.TryRLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, dir)
	}
	log.Debugf("NewDirLoader: %s: shared lock held", dir)
	return l, nil
}

// SegmentPath returns the path of the file holding segment id.
func (l *DirLoader) SegmentPath(id segment.SegmentID) string {
	return filepath.Join(l.dir, id.String()+l.opts.segmentSuffix)
}

func (l *DirLoader) Load(_ context.Context, id segment.SegmentID) ([]byte, error) {
	path := l.SegmentPath(id)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close releases the directory lock, if held.
func (l *DirLoader) Close() error {
	if l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
