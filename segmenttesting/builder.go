package segmenttesting

import (
	"encoding/binary"
	"hash/fnv"
	"slices"
	"testing"

	"github.com/forestrie/go-segmentusage/segment"
	"github.com/stretchr/testify/require"
)

const (
	blobMediumTag   = 0x80
	blobLongTag     = 0xc0
	blobExternalTag = 0xe0

	// ExternalLimit bounds the reference length of an external binary.
	ExternalLimit = 1 << 12
)

type BuilderOption func(*Builder)

// WithListLevelSize writes lists with the given fan-out.
func WithListLevelSize(n int) BuilderOption {
	return func(b *Builder) { b.listLevelSize = n }
}

// WithBlockSize splits long values into blocks of n bytes.
func WithBlockSize(n int) BuilderOption {
	return func(b *Builder) { b.blockSize = n }
}

// Builder writes records into a new segment using the segment wire format.
// Builder methods fail the test on error.
type Builder struct {
	t     testing.TB
	store *Store

	id   segment.SegmentID
	refs []segment.SegmentID
	data []byte

	listLevelSize int
	blockSize     int
}

func newBuilder(t testing.TB, store *Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		t:             t,
		store:         store,
		id:            segment.NewSegmentID(),
		listLevelSize: segment.ListLevelSize,
		blockSize:     segment.BlockSize,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Builder) ID() segment.SegmentID { return b.id }

// Seal freezes the records written so far into a segment and adds it to the
// builder's store.
func (b *Builder) Seal() *segment.Segment {
	s, err := segment.NewSegment(b.id, slices.Clone(b.refs), slices.Clone(b.data))
	require.NoError(b.t, err)
	b.store.Add(s)
	return s
}

// Hash returns the map key hash of name.
func Hash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// record starts a new aligned record and returns its id.
func (b *Builder) record(parts ...[]byte) segment.RecordID {
	for len(b.data)%segment.RecordAlign != 0 {
		b.data = append(b.data, 0)
	}
	offset := uint32(len(b.data))
	for _, p := range parts {
		b.data = append(b.data, p...)
	}
	require.LessOrEqual(b.t, len(b.data), segment.MaxSegmentSize, "segment full")
	return segment.NewRecordID(b.id, offset)
}

// ref returns the wire form of id, adding a segment reference if needed.
func (b *Builder) ref(id segment.RecordID) []byte {
	index := 0
	if id.Segment != b.id {
		index = slices.Index(b.refs, id.Segment) + 1
		if index == 0 {
			b.refs = append(b.refs, id.Segment)
			index = len(b.refs)
		}
	}
	require.LessOrEqual(b.t, index, segment.MaxSegmentRefs)
	dst := make([]byte, segment.RecordIDBytes)
	require.NoError(b.t, segment.PutRecordID(dst, uint8(index), id.Offset))
	return dst
}

func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u64(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }

// Raw writes data as a record without any interpretation.
func (b *Builder) Raw(data ...byte) segment.RecordID {
	return b.record(data)
}

// String writes a string record.
func (b *Builder) String(s string) segment.RecordID {
	length := int64(len(s))
	if length < segment.MediumLimit {
		return b.record(segment.LengthHeader(length), []byte(s))
	}
	list := b.blocks([]byte(s))
	return b.record(segment.LengthHeader(length), b.ref(list))
}

// Blob writes a binary record.
func (b *Builder) Blob(data []byte) segment.RecordID {
	length := len(data)
	switch {
	case length < segment.SmallLimit:
		return b.record([]byte{byte(length)}, data)
	case length < segment.MediumLimit:
		return b.record(u16(uint16(length-segment.SmallLimit)|blobMediumTag<<8), data)
	default:
		list := b.blocks(data)
		return b.record(u64(uint64(length-segment.MediumLimit)|blobLongTag<<56), b.ref(list))
	}
}

// ExternalBlob writes a reference to a binary held outside the store.
func (b *Builder) ExternalBlob(reference string) segment.RecordID {
	length := len(reference)
	require.Less(b.t, length, ExternalLimit)
	return b.record([]byte{blobExternalTag | byte(length>>8), byte(length)}, []byte(reference))
}

// blocks writes data as a sequence of block records and returns the id of
// the list referencing them.
func (b *Builder) blocks(data []byte) segment.RecordID {
	var ids []segment.RecordID
	for start := 0; start < len(data); start += b.blockSize {
		end := min(start+b.blockSize, len(data))
		ids = append(ids, b.record(data[start:end]))
	}
	return b.List(ids)
}

// List writes a list record. Buckets are written a level at a time; a
// trailing bucket of a single entry is carried up unwritten, and a single
// entry list is the entry itself.
func (b *Builder) List(ids []segment.RecordID) segment.RecordID {
	require.NotEmpty(b.t, ids)
	level := ids
	for len(level) > 1 {
		var next []segment.RecordID
		for start := 0; start < len(level); start += b.listLevelSize {
			bucket := level[start:min(start+b.listLevelSize, len(level))]
			if len(bucket) == 1 {
				next = append(next, bucket[0])
				continue
			}
			next = append(next, b.listBucket(bucket))
		}
		level = next
	}
	return level[0]
}

func (b *Builder) listBucket(ids []segment.RecordID) segment.RecordID {
	parts := make([][]byte, len(ids))
	for i, id := range ids {
		parts[i] = b.ref(id)
	}
	return b.record(parts...)
}

// ArrayProperty writes an array property record over values.
func (b *Builder) ArrayProperty(values ...segment.RecordID) segment.RecordID {
	if len(values) == 0 {
		return b.record(u32(0))
	}
	list := b.List(values)
	return b.record(u32(uint32(len(values))), b.ref(list))
}

// Template writes t. The head counts are taken from the slices of t, the
// flags from t.Head.
func (b *Builder) Template(t segment.Template) segment.RecordID {
	h := t.Head
	h.MixinCount = uint16(len(t.MixinTypes))
	h.PropertyCount = uint32(len(t.Properties))
	head, err := segment.EncodeTemplateHead(h)
	require.NoError(b.t, err)

	parts := [][]byte{u32(head)}
	if h.HasPrimaryType {
		parts = append(parts, b.ref(t.PrimaryType))
	}
	if h.HasMixinTypes {
		for _, id := range t.MixinTypes {
			parts = append(parts, b.ref(id))
		}
	}
	if h.ChildNodes() == segment.OneChildNode {
		parts = append(parts, b.ref(t.ChildName))
	}
	for _, p := range t.Properties {
		parts = append(parts, b.ref(p.Name), []byte{p.Type.Encode()})
	}
	return b.record(parts...)
}

// Node writes a node record: the template id followed by ids, which are the
// optional child id and then one id per property.
func (b *Builder) Node(template segment.RecordID, ids ...segment.RecordID) segment.RecordID {
	parts := [][]byte{b.ref(template)}
	for _, id := range ids {
		parts = append(parts, b.ref(id))
	}
	return b.record(parts...)
}

// Entry writes the key string for name and returns a map entry for value.
func (b *Builder) Entry(name string, value segment.RecordID) segment.MapEntry {
	return segment.MapEntry{Hash: Hash(name), Key: b.String(name), Value: value}
}

// MapLeaf writes a leaf record holding entries as given.
func (b *Builder) MapLeaf(level int, entries ...segment.MapEntry) segment.RecordID {
	head, err := segment.EncodeMapHead(level, len(entries))
	require.NoError(b.t, err)
	parts := [][]byte{u32(head)}
	for _, e := range entries {
		parts = append(parts, u32(e.Hash))
	}
	for _, e := range entries {
		parts = append(parts, b.ref(e.Key), b.ref(e.Value))
	}
	return b.record(parts...)
}

// MapBranch writes a branch record. buckets is indexed by bucket number,
// zero ids mark empty buckets.
func (b *Builder) MapBranch(level, size int, buckets [segment.MapBucketsPerLevel]*segment.RecordID) segment.RecordID {
	head, err := segment.EncodeMapHead(level, size)
	require.NoError(b.t, err)
	var bitmap uint32
	var parts [][]byte
	for i, id := range buckets {
		if id == nil {
			continue
		}
		bitmap |= 1 << i
		parts = append(parts, b.ref(*id))
	}
	return b.record(append([][]byte{u32(head), u32(bitmap)}, parts...)...)
}

// MapDiff writes a diff record overlaying e on base.
func (b *Builder) MapDiff(e segment.MapEntry, base segment.RecordID) segment.RecordID {
	return b.record(u32(segment.MapDiffMarker), u32(e.Hash), b.ref(e.Key), b.ref(e.Value), b.ref(base))
}

// Map writes entries as a hash trie, splitting into branches wherever a
// level holds more than MapBucketsPerLevel entries.
func (b *Builder) Map(entries ...segment.MapEntry) segment.RecordID {
	return b.mapLevel(0, entries)
}

func (b *Builder) mapLevel(level int, entries []segment.MapEntry) segment.RecordID {
	if !segment.IsMapBranch(level, len(entries)) {
		sorted := slices.Clone(entries)
		slices.SortStableFunc(sorted, func(x, y segment.MapEntry) int {
			switch {
			case x.Hash < y.Hash:
				return -1
			case x.Hash > y.Hash:
				return 1
			}
			return 0
		})
		return b.MapLeaf(level, sorted...)
	}
	var partitions [segment.MapBucketsPerLevel][]segment.MapEntry
	for _, e := range entries {
		i := segment.MapBucketIndex(e.Hash, level)
		partitions[i] = append(partitions[i], e)
	}
	var buckets [segment.MapBucketsPerLevel]*segment.RecordID
	for i, p := range partitions {
		if len(p) == 0 {
			continue
		}
		id := b.mapLevel(level+1, p)
		buckets[i] = &id
	}
	return b.MapBranch(level, len(entries), buckets)
}
