package segmentstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/forestrie/go-segmentusage/segment"
	"github.com/forestrie/go-segmentusage/segmenttesting"
	"github.com/forestrie/go-segmentusage/usage"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirLoader_NotADir(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := NewDirLoader(tc.Log, file)
	assert.ErrorIs(t, err, ErrPathIsNotDir)

	_, err = NewDirLoader(tc.Log, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDirLoader_Analyse(t *testing.T) {
	ctx := context.Background()
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	root := buildTree(tc)
	dir := t.TempDir()
	writeDir(t, dir, encodeAll(t, tc))

	loader, err := NewDirLoader(tc.Log, dir, WithLock())
	require.NoError(t, err)
	defer loader.Close()
	store, err := NewStore(tc.Log, loader)
	require.NoError(t, err)

	a := usage.NewAnalyser(tc.Log, store)
	require.NoError(t, a.AnalyseNode(ctx, root))
	assert.Equal(t, inMemoryUsage(t, tc, root), a.Usage())

	_, err = loader.Load(ctx, segment.NewSegmentID())
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestDirLoader_SegmentSuffix(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	dir := t.TempDir()
	loader, err := NewDirLoader(tc.Log, dir, WithSegmentSuffix(".tar.seg"))
	require.NoError(t, err)

	id := segment.NewSegmentID()
	assert.Equal(t, filepath.Join(dir, id.String()+".tar.seg"), loader.SegmentPath(id))
	require.NoError(t, os.WriteFile(loader.SegmentPath(id), []byte{1, 2, 3}, 0644))

	data, err := loader.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.NoError(t, loader.Close())
}

func TestDirLoader_Lock(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	dir := t.TempDir()

	writer := flock.New(filepath.Join(dir, LockFileName))
	locked, err := writer.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, err = NewDirLoader(tc.Log, dir, WithLock())
	assert.ErrorIs(t, err, ErrStoreLocked)

	require.NoError(t, writer.Unlock())

	// readers share the lock
	first, err := NewDirLoader(tc.Log, dir, WithLock())
	require.NoError(t, err)
	second, err := NewDirLoader(tc.Log, dir, WithLock())
	require.NoError(t, err)

	locked, err = writer.TryLock()
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
	locked, err = writer.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, writer.Unlock())
}
