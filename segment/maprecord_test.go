package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHead(t *testing.T) {
	head, err := EncodeMapHead(3, 1000)
	require.NoError(t, err)
	level, size, diff := DecodeMapHead(head)
	assert.Equal(t, 3, level)
	assert.Equal(t, 1000, size)
	assert.False(t, diff)

	_, _, diff = DecodeMapHead(MapDiffMarker)
	assert.True(t, diff)

	_, err = EncodeMapHead(0, MapMaxSize+1)
	assert.ErrorIs(t, err, ErrMapSizeOverflow)
	_, err = EncodeMapHead(MapMaxLevels+1, 1)
	assert.ErrorIs(t, err, ErrMapSizeOverflow)
}

func TestIsMapBranch(t *testing.T) {
	assert.False(t, IsMapBranch(0, MapBucketsPerLevel))
	assert.True(t, IsMapBranch(0, MapBucketsPerLevel+1))
	assert.True(t, IsMapBranch(MapMaxLevels-1, 1000))
	assert.False(t, IsMapBranch(MapMaxLevels, 1000))
}

func TestMapBucketIndex(t *testing.T) {
	const hash = 0xf8000001
	assert.Equal(t, 31, MapBucketIndex(hash, 0))
	assert.Equal(t, 0, MapBucketIndex(hash, 1))
	assert.Equal(t, 1, MapBucketIndex(0x00000004, 5))
	// the last level takes the low 2 bits, shifted into the top of the index
	assert.Equal(t, 8, MapBucketIndex(0x00000001, 6))
}

func TestSegment_ReadMap(t *testing.T) {
	other := NewSegmentID()
	rid := func(ref uint8, offset uint32) []byte {
		b := make([]byte, RecordIDBytes)
		require.NoError(t, PutRecordID(b, ref, offset))
		return b
	}

	t.Run("leaf", func(t *testing.T) {
		data := []byte{0x00, 0x00, 0x00, 0x02, 0, 0, 0, 1, 0, 0, 0, 2}
		data = append(data, rid(0, 4)...)
		data = append(data, rid(1, 8)...)
		data = append(data, rid(0, 12)...)
		data = append(data, rid(1, 16)...)
		s, err := NewSegment(NewSegmentID(), []SegmentID{other}, data)
		require.NoError(t, err)

		m, err := s.ReadMap(0)
		require.NoError(t, err)
		assert.Equal(t, MapLeaf, m.Kind)
		assert.Equal(t, []MapEntry{
			{Hash: 1, Key: NewRecordID(s.ID(), 4), Value: NewRecordID(other, 8)},
			{Hash: 2, Key: NewRecordID(s.ID(), 12), Value: NewRecordID(other, 16)},
		}, m.Entries)
		assert.Equal(t, len(data), MapLeafSize(m.Size))
	})

	t.Run("truncated leaf", func(t *testing.T) {
		s, err := NewSegment(NewSegmentID(), nil, []byte{0x00, 0x00, 0x00, 0x05, 0, 0, 0, 1})
		require.NoError(t, err)
		_, err = s.ReadMap(0)
		assert.ErrorIs(t, err, ErrBadMapRecord)
	})

	t.Run("branch", func(t *testing.T) {
		head, err := EncodeMapHead(0, 40)
		require.NoError(t, err)
		data := []byte{byte(head >> 24), byte(head >> 16), byte(head >> 8), byte(head)}
		data = append(data, 0x80, 0x00, 0x00, 0x01)
		data = append(data, rid(0, 100)...)
		data = append(data, rid(1, 200)...)
		s, err := NewSegment(NewSegmentID(), []SegmentID{other}, data)
		require.NoError(t, err)

		m, err := s.ReadMap(0)
		require.NoError(t, err)
		assert.Equal(t, MapBranch, m.Kind)
		assert.Equal(t, 40, m.Size)
		assert.Equal(t, uint32(0x80000001), m.Bitmap)
		assert.Equal(t, []RecordID{NewRecordID(s.ID(), 100), NewRecordID(other, 200)}, m.Buckets)
		assert.Equal(t, len(data), MapBranchSize(len(m.Buckets)))
	})

	t.Run("diff", func(t *testing.T) {
		data := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 9}
		data = append(data, rid(0, 20)...)
		data = append(data, rid(0, 24)...)
		data = append(data, rid(1, 28)...)
		s, err := NewSegment(NewSegmentID(), []SegmentID{other}, data)
		require.NoError(t, err)

		m, err := s.ReadMap(0)
		require.NoError(t, err)
		assert.Equal(t, MapDiff, m.Kind)
		assert.Equal(t, MapEntry{Hash: 9, Key: NewRecordID(s.ID(), 20), Value: NewRecordID(s.ID(), 24)}, m.Diff)
		assert.Equal(t, NewRecordID(other, 28), m.Base)
		assert.Equal(t, len(data), MapDiffSize)
	})
}
