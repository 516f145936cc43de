package segmentstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/forestrie/go-segmentusage/segment"
	"github.com/forestrie/go-segmentusage/segmenttesting"
	"github.com/forestrie/go-segmentusage/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader struct {
	containers map[segment.SegmentID][]byte
	loads      int
}

func (l *mapLoader) Load(_ context.Context, id segment.SegmentID) ([]byte, error) {
	l.loads++
	data, ok := l.containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, id)
	}
	return data, nil
}

// buildTree writes a small two segment tree and returns its root.
func buildTree(tc segmenttesting.TestContext) segment.RecordID {
	shared := tc.NewBuilder()
	leafTmpl := shared.Template(segment.Template{
		Head: segment.TemplateHead{ZeroChildNodes: true},
		Properties: []segment.PropertyTemplate{
			{Name: shared.String("title"), Type: segment.PropertyType{Tag: segment.TypeString}},
		},
	})
	leaf := shared.Node(leafTmpl, shared.String("shared leaf"))
	shared.Seal()

	b := tc.NewBuilder()
	tmpl := b.Template(segment.Template{Head: segment.TemplateHead{ManyChildNodes: true}})
	root := b.Node(tmpl, b.Map(b.Entry("a", leaf), b.Entry("b", leaf)))
	b.Seal()
	return root
}

// encodeAll returns the containers of every segment in the test store.
func encodeAll(t *testing.T, tc segmenttesting.TestContext) map[segment.SegmentID][]byte {
	codec, err := NewCBORCodec()
	require.NoError(t, err)
	containers := map[segment.SegmentID][]byte{}
	for _, s := range tc.Store.Segments() {
		data, err := EncodeSegment(codec, s)
		require.NoError(t, err)
		containers[s.ID()] = data
	}
	return containers
}

func writeDir(t *testing.T, dir string, containers map[segment.SegmentID][]byte) {
	for id, data := range containers {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id.String()+DefaultSegmentSuffix), data, 0644))
	}
}

// inMemoryUsage analyses root straight from the test store.
func inMemoryUsage(t *testing.T, tc segmenttesting.TestContext, root segment.RecordID) usage.Usage {
	a := usage.NewAnalyser(tc.Log, tc.Store)
	require.NoError(t, a.AnalyseNode(context.Background(), root))
	return a.Usage()
}

func TestNewStore(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	_, err := NewStore(tc.Log, nil)
	assert.ErrorIs(t, err, ErrLoaderNotConfigured)
}

func TestStore_ReadSegment(t *testing.T) {
	ctx := context.Background()
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	root := buildTree(tc)
	loader := &mapLoader{containers: encodeAll(t, tc)}

	store, err := NewStore(tc.Log, loader)
	require.NoError(t, err)

	a := usage.NewAnalyser(tc.Log, store)
	require.NoError(t, a.AnalyseNode(ctx, root))
	assert.Equal(t, inMemoryUsage(t, tc, root), a.Usage())

	// each segment is loaded once
	assert.Equal(t, 2, loader.loads)
	assert.Equal(t, 2, store.Len())

	_, err = store.ReadSegment(ctx, segment.NewSegmentID())
	assert.ErrorIs(t, err, ErrSegmentNotFound)
	assert.ErrorIs(t, err, segment.ErrSegmentNotFound)
}

func TestStore_ReadSegment_IDMismatch(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	b := tc.NewBuilder()
	b.String("x")
	s := b.Seal()
	containers := encodeAll(t, tc)

	other := segment.NewSegmentID()
	store, err := NewStore(tc.Log, &mapLoader{containers: map[segment.SegmentID][]byte{other: containers[s.ID()]}})
	require.NoError(t, err)

	_, err = store.ReadSegment(context.Background(), other)
	assert.ErrorIs(t, err, ErrSegmentIDMismatch)
}

func TestStore_ReadSegment_BadContainer(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{TestLabelPrefix: "segmentstore"})
	id := segment.NewSegmentID()
	store, err := NewStore(tc.Log, &mapLoader{containers: map[segment.SegmentID][]byte{id: []byte("not cbor")}})
	require.NoError(t, err)

	_, err = store.ReadSegment(context.Background(), id)
	assert.True(t, errors.Is(err, ErrBadContainer))
}
