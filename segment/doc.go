package segment

/*

# Segment record primitives

This package provides read primitives for sealed, append-only record segments.
A segment is an immutable byte buffer holding many small records. Records
reference each other with fixed width record ids, so the records of a store
form a directed acyclic graph that freely shares sub-graphs between parents.

All multi-byte fields are big-endian. Every read is bounds checked, a corrupt
record produces an error rather than a panic. Decoding a record never follows
the ids it holds; resolving lists, maps and long strings across segments is
done by ListEntries, MapEntries and ReadString over a Reader.

## Record ids

A record id is 3 bytes on the wire:

	| ref index | offset >> 2 |
	|     1     |      2      |

ref index 0 names the containing segment, i > 0 names Refs()[i-1]. Records
are aligned to 4 bytes, so 16 bits of offset address a 256KiB segment.

## Values

Strings and binaries use a size class header:

	0xxxxxxx                       small, length < 128, inline
	10xxxxxx xxxxxxxx              medium, length - 128 < 1<<14, inline
	11xxxxxx + 7 bytes             long string, followed by a block list id
	110xxxxx + 7 bytes             long binary, followed by a block list id
	1110xxxx xxxxxxxx              external binary reference

Long values are stored in BlockSize chunks, referenced through a list.

## Lists

A list of at most ListLevelSize entries is that many record ids. Larger lists
are written bottom up, ListLevelSize entries per bucket. A trailing bucket of
a single entry is not written, the entry is carried up a level instead. A
list holding exactly one entry is the entry itself.

## Maps

Maps are hash tries with 32 buckets per level:

	leaf:   head | hash * size | (key, value) * size
	branch: head | bitmap | bucket * popcount(bitmap)
	diff:   0xFFFFFFFF | hash | key | value | base

head is level<<28 | size. A diff is a single entry overlay of its base map.

## Templates and nodes

A template describes the layout of a node record:

	head | primary type? | mixin * n? | child name? | (name, type) * properties

A node record is the template id, an optional child id (a single child node,
or a map of child nodes) and one id per property value.

*/
