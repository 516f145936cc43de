// Package usage breaks down the space taken by the records reachable from a
// node into maps, lists, values, templates and nodes.
//
// Records are shared freely between parents. An Analyser remembers every
// record it has charged and never charges it again, so its totals are the
// effective space of the distinct records reachable from the nodes analysed.
// Slack space from aligning records is not accounted for.
package usage
