package segment

import (
	"context"
	"fmt"
	"math"
)

// ListBucketSize returns the number of entries addressed by each slot of the
// top level of a list holding size entries.
func ListBucketSize(size, levelSize int) int {
	bucketSize := 1
	for bucketSize*levelSize < size {
		bucketSize *= levelSize
	}
	return bucketSize
}

// ListEntries resolves the entries of the list record id holding size
// entries, in order.
func ListEntries(ctx context.Context, r Reader, id RecordID, size, levelSize int) ([]RecordID, error) {
	if size < 0 || levelSize < 2 {
		return nil, fmt.Errorf("%w: size %d, level size %d", ErrBadListSize, size, levelSize)
	}
	entries := make([]RecordID, 0, min(size, levelSize))
	return appendListEntries(ctx, r, entries, id, size, levelSize)
}

func appendListEntries(
	ctx context.Context, r Reader, entries []RecordID, id RecordID, size, levelSize int,
) ([]RecordID, error) {
	if size == 0 {
		return entries, nil
	}
	// a single entry list is the entry
	if size == 1 {
		return append(entries, id), nil
	}
	s, err := r.ReadSegment(ctx, id.Segment)
	if err != nil {
		return nil, err
	}
	bucketSize := ListBucketSize(size, levelSize)
	slots := (size + bucketSize - 1) / bucketSize
	for i := 0; i < slots; i++ {
		slot, err := s.ReadRecordID(id.Offset + uint32(i*RecordIDBytes))
		if err != nil {
			return nil, err
		}
		if bucketSize == 1 {
			entries = append(entries, slot)
			continue
		}
		n := min(bucketSize, size-i*bucketSize)
		if entries, err = appendListEntries(ctx, r, entries, slot, n, levelSize); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// MapEntries resolves the effective entries of the map record id. A diff
// replaces the matching entry of its base, or adds to it.
func MapEntries(ctx context.Context, r Reader, id RecordID) ([]MapEntry, error) {
	return appendMapEntries(ctx, r, nil, id, 0)
}

func appendMapEntries(
	ctx context.Context, r Reader, entries []MapEntry, id RecordID, level int,
) ([]MapEntry, error) {
	s, err := r.ReadSegment(ctx, id.Segment)
	if err != nil {
		return nil, err
	}
	m, err := s.ReadMap(id.Offset)
	if err != nil {
		return nil, err
	}
	switch m.Kind {
	case MapLeaf:
		return append(entries, m.Entries...), nil

	case MapBranch:
		if m.Level != level {
			return nil, fmt.Errorf("%w: branch level %d at depth %d, %s", ErrBadMapRecord, m.Level, level, id)
		}
		for _, bucket := range m.Buckets {
			if entries, err = appendMapEntries(ctx, r, entries, bucket, level+1); err != nil {
				return nil, err
			}
		}
		return entries, nil

	case MapDiff:
		if level != 0 {
			return nil, fmt.Errorf("%w: diff nested in a map, %s", ErrBadMapRecord, id)
		}
		base, err := diffBase(ctx, r, m.Base)
		if err != nil {
			return nil, err
		}
		for i, e := range base {
			same, err := sameKey(ctx, r, e, m.Diff)
			if err != nil {
				return nil, err
			}
			if same {
				base[i] = m.Diff
				return append(entries, base...), nil
			}
		}
		return append(append(entries, base...), m.Diff), nil
	}
	return nil, fmt.Errorf("%w: kind %s, %s", ErrBadMapRecord, m.Kind, id)
}

func diffBase(ctx context.Context, r Reader, base RecordID) ([]MapEntry, error) {
	s, err := r.ReadSegment(ctx, base.Segment)
	if err != nil {
		return nil, err
	}
	head, err := s.ReadUint32(base.Offset)
	if err != nil {
		return nil, err
	}
	if head == MapDiffMarker {
		return nil, fmt.Errorf("%w: diff based on a diff, %s", ErrBadMapRecord, base)
	}
	return appendMapEntries(ctx, r, nil, base, 0)
}

func sameKey(ctx context.Context, r Reader, a, b MapEntry) (bool, error) {
	if a.Hash != b.Hash {
		return false, nil
	}
	if a.Key == b.Key {
		return true, nil
	}
	ka, err := ReadString(ctx, r, a.Key)
	if err != nil {
		return false, err
	}
	kb, err := ReadString(ctx, r, b.Key)
	if err != nil {
		return false, err
	}
	return ka == kb, nil
}

// ReadString decodes the string record id. Long strings are assembled from
// their block list.
func ReadString(ctx context.Context, r Reader, id RecordID) (string, error) {
	s, err := r.ReadSegment(ctx, id.Segment)
	if err != nil {
		return "", err
	}
	length, header, err := s.ReadLength(id.Offset)
	if err != nil {
		return "", err
	}
	if length < MediumLimit {
		b, err := s.Bytes(id.Offset+uint32(header), int(length))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if length >= math.MaxInt32 {
		return "", fmt.Errorf("%w: %d, %s", ErrStringTooLong, length, id)
	}
	listID, err := s.ReadRecordID(id.Offset + uint32(header))
	if err != nil {
		return "", err
	}
	return readBlocks(ctx, r, listID, length, BlockSize, ListLevelSize)
}

// readBlocks concatenates the blocks holding length bytes.
func readBlocks(ctx context.Context, r Reader, listID RecordID, length int64, blockSize, levelSize int) (string, error) {
	count := int((length + int64(blockSize) - 1) / int64(blockSize))
	blocks, err := ListEntries(ctx, r, listID, count, levelSize)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, min(length, MaxSegmentSize))
	for _, block := range blocks {
		s, err := r.ReadSegment(ctx, block.Segment)
		if err != nil {
			return "", err
		}
		n := min(int64(blockSize), length-int64(len(buf)))
		b, err := s.Bytes(block.Offset, int(n))
		if err != nil {
			return "", err
		}
		buf = append(buf, b...)
	}
	return string(buf), nil
}
