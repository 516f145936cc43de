package segment_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/forestrie/go-segmentusage/segment"
	"github.com/forestrie/go-segmentusage/segmenttesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBucketSize(t *testing.T) {
	assert.Equal(t, 1, segment.ListBucketSize(4, 4))
	assert.Equal(t, 4, segment.ListBucketSize(5, 4))
	assert.Equal(t, 4, segment.ListBucketSize(16, 4))
	assert.Equal(t, 16, segment.ListBucketSize(17, 4))
	assert.Equal(t, 256, segment.ListBucketSize(300, segment.ListLevelSize))
}

func TestListEntries(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		levelSize int
	}{
		{"single entry", 1, 4},
		{"one bucket", 4, 4},
		{"trailing single entry", 9, 4},
		{"two full levels", 16, 4},
		{"carried up twice", 17, 4},
		{"default fan-out", 300, segment.ListLevelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{})
			b := tc.NewBuilder(segmenttesting.WithListLevelSize(tt.levelSize))
			var want []segment.RecordID
			for i := 0; i < tt.size; i++ {
				want = append(want, b.Raw(byte(i)))
			}
			list := b.List(want)
			b.Seal()

			got, err := segment.ListEntries(context.Background(), tc.Store, list, tt.size, tt.levelSize)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestListEntries_BadSize(t *testing.T) {
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{})
	_, err := segment.ListEntries(context.Background(), tc.Store, segment.RecordID{}, -1, 4)
	assert.ErrorIs(t, err, segment.ErrBadListSize)
	_, err = segment.ListEntries(context.Background(), tc.Store, segment.RecordID{}, 2, 1)
	assert.ErrorIs(t, err, segment.ErrBadListSize)
}

func TestMapEntries(t *testing.T) {
	ctx := context.Background()
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{})
	b := tc.NewBuilder()

	value := b.Raw(1)
	var small, large []segment.MapEntry
	for i := 0; i < 100; i++ {
		e := b.Entry(fmt.Sprintf("name-%d", i), value)
		if i < 2 {
			small = append(small, e)
		}
		large = append(large, e)
	}
	smallMap := b.Map(small...)
	largeMap := b.Map(large...)
	replaced := b.Raw(2)
	replace := b.MapDiff(b.Entry("name-0", replaced), smallMap)
	add := b.MapDiff(b.Entry("other", replaced), smallMap)
	diffOnDiff := b.MapDiff(b.Entry("name-1", replaced), replace)
	b.Seal()

	t.Run("leaf", func(t *testing.T) {
		got, err := segment.MapEntries(ctx, tc.Store, smallMap)
		require.NoError(t, err)
		assert.ElementsMatch(t, small, got)
	})

	t.Run("branch", func(t *testing.T) {
		s, err := tc.Store.ReadSegment(ctx, largeMap.Segment)
		require.NoError(t, err)
		m, err := s.ReadMap(largeMap.Offset)
		require.NoError(t, err)
		require.Equal(t, segment.MapBranch, m.Kind)

		got, err := segment.MapEntries(ctx, tc.Store, largeMap)
		require.NoError(t, err)
		assert.ElementsMatch(t, large, got)
	})

	t.Run("diff replaces", func(t *testing.T) {
		got, err := segment.MapEntries(ctx, tc.Store, replace)
		require.NoError(t, err)
		require.Len(t, got, 2)
		values := map[uint32]segment.RecordID{}
		for _, e := range got {
			values[e.Hash] = e.Value
		}
		assert.Equal(t, replaced, values[segmenttesting.Hash("name-0")])
		assert.Equal(t, value, values[segmenttesting.Hash("name-1")])
	})

	t.Run("diff adds", func(t *testing.T) {
		got, err := segment.MapEntries(ctx, tc.Store, add)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("diff on diff", func(t *testing.T) {
		_, err := segment.MapEntries(ctx, tc.Store, diffOnDiff)
		assert.ErrorIs(t, err, segment.ErrBadMapRecord)
	})
}

func TestReadString(t *testing.T) {
	ctx := context.Background()
	tc := segmenttesting.NewTestContext(t, segmenttesting.TestConfig{})
	b := tc.NewBuilder()
	long := strings.Repeat("0123456789", segment.MediumLimit/10+500)
	tests := map[string]string{
		"empty":  "",
		"small":  "jcr:primaryType",
		"medium": strings.Repeat("m", segment.SmallLimit+1),
		"long":   long,
	}
	ids := map[string]segment.RecordID{}
	for name, s := range tests {
		ids[name] = b.String(s)
	}
	b.Seal()

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := segment.ReadString(ctx, tc.Store, ids[name])
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := segment.ReadString(ctx, tc.Store, segment.NewRecordID(segment.NewSegmentID(), 0))
	assert.ErrorIs(t, err, segment.ErrSegmentNotFound)
}
