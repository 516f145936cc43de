package usage

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Usage is the space, in bytes, taken by each category of record.
type Usage struct {
	// Maps is leaf, branch and diff map records.
	Maps int64
	// Lists is list and bucket records.
	Lists int64
	// Values is string, binary, array and block records.
	Values int64
	// Templates is template records, without their name strings.
	Templates int64
	// Nodes is node records.
	Nodes int64
}

func (u Usage) Total() int64 {
	return u.Maps + u.Lists + u.Values + u.Templates + u.Nodes
}

// Report formats the usage one category per line with human readable sizes.
func (u Usage) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s in maps (leaf and branch records)\n", byteCount(u.Maps))
	fmt.Fprintf(&sb, "%s in lists (list and bucket records)\n", byteCount(u.Lists))
	fmt.Fprintf(&sb, "%s in values (value and block records)\n", byteCount(u.Values))
	fmt.Fprintf(&sb, "%s in templates (template records)\n", byteCount(u.Templates))
	fmt.Fprintf(&sb, "%s in nodes (node records)\n", byteCount(u.Nodes))
	return sb.String()
}

func (u Usage) String() string { return u.Report() }

func byteCount(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}
