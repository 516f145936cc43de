package segment

import (
	"fmt"
	"math/bits"
)

const (
	MapBitsPerLevel    = 5
	MapBucketsPerLevel = 1 << MapBitsPerLevel
	// MapMaxLevels is the number of levels needed to consume a 32 bit hash.
	MapMaxLevels = (32 + MapBitsPerLevel - 1) / MapBitsPerLevel

	MapSizeBits = 28
	MapMaxSize  = (1 << MapSizeBits) - 1

	MapHeadBytes   = 4
	MapHashBytes   = 4
	MapBitmapBytes = 4

	// MapDiffMarker is the head word of a diff record. Its level field is
	// beyond MapMaxLevels, so it never collides with a leaf or branch head.
	MapDiffMarker = 0xffffffff
)

// MapKind discriminates the encodings of a map record.
type MapKind uint8

const (
	MapLeaf MapKind = iota
	MapBranch
	MapDiff
)

func (k MapKind) String() string {
	switch k {
	case MapLeaf:
		return "leaf"
	case MapBranch:
		return "branch"
	case MapDiff:
		return "diff"
	default:
		return fmt.Sprintf("MapKind(%d)", uint8(k))
	}
}

// MapEntry is one key/value pair. Keys are string records, Hash is the hash
// of the key string.
type MapEntry struct {
	Hash  uint32
	Key   RecordID
	Value RecordID
}

// MapRecord is a decoded map record. Which fields are valid depends on Kind:
//
//   - MapLeaf: Level, Size, Entries
//   - MapBranch: Level, Size, Bitmap, Buckets (populated buckets only, in bit order)
//   - MapDiff: Diff (the changed entry) and Base
type MapRecord struct {
	Kind    MapKind
	Level   int
	Size    int
	Entries []MapEntry
	Bitmap  uint32
	Buckets []RecordID
	Diff    MapEntry
	Base    RecordID
}

// IsMapBranch returns true if a map head with level and size denotes a branch.
func IsMapBranch(level, size int) bool {
	return size > MapBucketsPerLevel && level < MapMaxLevels
}

// DecodeMapHead unpacks a map head word. diff is true for a diff marker, in
// which case level and size are undefined.
func DecodeMapHead(head uint32) (level, size int, diff bool) {
	if head == MapDiffMarker {
		return 0, 0, true
	}
	return int(head >> MapSizeBits), int(head & MapMaxSize), false
}

// EncodeMapHead packs level and size into a map head word.
func EncodeMapHead(level, size int) (uint32, error) {
	if size < 0 || size > MapMaxSize || level < 0 || level > MapMaxLevels {
		return 0, fmt.Errorf("%w: level %d, size %d", ErrMapSizeOverflow, level, size)
	}
	return uint32(level)<<MapSizeBits | uint32(size), nil
}

// MapBucketIndex returns the branch bucket of hash at level.
func MapBucketIndex(hash uint32, level int) int {
	const mask = MapBucketsPerLevel - 1
	shift := 32 - (level+1)*MapBitsPerLevel
	if shift < 0 {
		return int(hash<<uint(-shift)) & mask
	}
	return int(hash>>uint(shift)) & mask
}

// MapLeafSize returns the encoded size of a leaf with size entries.
func MapLeafSize(size int) int {
	return MapHeadBytes + size*MapHashBytes + size*2*RecordIDBytes
}

// MapBranchSize returns the encoded size of a branch with buckets populated
// buckets.
func MapBranchSize(buckets int) int {
	return MapHeadBytes + MapBitmapBytes + buckets*RecordIDBytes
}

// MapDiffSize is the encoded size of a diff record.
const MapDiffSize = MapHeadBytes + MapHashBytes + 3*RecordIDBytes

// ReadMap decodes the map record at offset.
func (s *Segment) ReadMap(offset uint32) (MapRecord, error) {
	head, err := s.ReadUint32(offset)
	if err != nil {
		return MapRecord{}, err
	}
	level, size, diff := DecodeMapHead(head)
	if diff {
		return s.readMapDiff(offset)
	}
	if IsMapBranch(level, size) {
		return s.readMapBranch(offset, level, size)
	}
	return s.readMapLeaf(offset, level, size)
}

func (s *Segment) readMapDiff(offset uint32) (MapRecord, error) {
	m := MapRecord{Kind: MapDiff}
	var err error
	pos := offset + MapHeadBytes
	if m.Diff.Hash, err = s.ReadUint32(pos); err != nil {
		return MapRecord{}, err
	}
	pos += MapHashBytes
	if m.Diff.Key, err = s.ReadRecordID(pos); err != nil {
		return MapRecord{}, err
	}
	pos += RecordIDBytes
	if m.Diff.Value, err = s.ReadRecordID(pos); err != nil {
		return MapRecord{}, err
	}
	pos += RecordIDBytes
	if m.Base, err = s.ReadRecordID(pos); err != nil {
		return MapRecord{}, err
	}
	return m, nil
}

func (s *Segment) readMapLeaf(offset uint32, level, size int) (MapRecord, error) {
	if uint64(offset)+uint64(MapLeafSize(size)) > uint64(s.Size()) {
		return MapRecord{}, fmt.Errorf(
			"%w: leaf of %d entries overruns segment %s at %d", ErrBadMapRecord, size, s.id, offset)
	}
	m := MapRecord{Kind: MapLeaf, Level: level, Size: size, Entries: make([]MapEntry, size)}
	hashes := offset + MapHeadBytes
	pairs := hashes + uint32(size*MapHashBytes)
	var err error
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.Hash, err = s.ReadUint32(hashes + uint32(i*MapHashBytes)); err != nil {
			return MapRecord{}, err
		}
		pos := pairs + uint32(i*2*RecordIDBytes)
		if e.Key, err = s.ReadRecordID(pos); err != nil {
			return MapRecord{}, err
		}
		if e.Value, err = s.ReadRecordID(pos + RecordIDBytes); err != nil {
			return MapRecord{}, err
		}
	}
	return m, nil
}

func (s *Segment) readMapBranch(offset uint32, level, size int) (MapRecord, error) {
	m := MapRecord{Kind: MapBranch, Level: level, Size: size}
	var err error
	if m.Bitmap, err = s.ReadUint32(offset + MapHeadBytes); err != nil {
		return MapRecord{}, err
	}
	pos := offset + MapHeadBytes + MapBitmapBytes
	m.Buckets = make([]RecordID, bits.OnesCount32(m.Bitmap))
	for i := range m.Buckets {
		if m.Buckets[i], err = s.ReadRecordID(pos); err != nil {
			return MapRecord{}, err
		}
		pos += RecordIDBytes
	}
	return m, nil
}
