package usage

import "github.com/forestrie/go-segmentusage/segment"

// ListSlots returns the number of record id slots taken by a list of n
// entries written with the given fan-out: the entries themselves plus the
// slots of every bucket level above them.
//
// A trailing bucket of a single entry is carried up a level unwritten, so a
// remainder of one does not add a slot to the level above.
func ListSlots(n, levelSize int) int {
	if n <= levelSize {
		return n
	}
	buckets := n / levelSize
	if n%levelSize > 1 {
		buckets++
	}
	return n + ListSlots(buckets, levelSize)
}

// analyseList charges the list and bucket records of the list id holding
// size entries. The entries are charged by the caller.
func (a *Analyser) analyseList(id segment.RecordID, size int) {
	if !a.seen.MarkSeen(id) {
		return
	}
	a.usage.Lists += int64(ListSlots(size, a.opts.listLevelSize)) * segment.RecordIDBytes
}
