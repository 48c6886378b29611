// Package document holds the normalized block tree.
//
// A Document maps block ids to nodes and tracks the reserved root id. It is
// an immutable value: commands build the next Document through a Draft,
// which shallow-copies the id map and shares every untouched node with the
// previous Document. Old Documents stay valid indefinitely, so history
// snapshots and renderers can hold them without copying.
//
// Invariants of a committed Document (see Check):
//   - RootID exists and its type is a container type
//   - every child id names an existing node
//   - every non-root node has exactly one parent; the root has none
//   - no id repeats within one children list
//   - every node is reachable from the root (no cycles, no orphans)
//   - only container types carry a children list
package document
