// Package render projects a document to markup and to canonical JSON.
//
// Both projections walk the tree depth-first from a root id, honoring
// children order, so output never depends on map iteration. They only read
// the document and are byte-deterministic: the same document always yields
// the same bytes.
//
// The canonical JSON of a node is
//
//	{"children":[...],"id":"...","props":{...},"style":{...},"type":"..."}
//
// with keys in RFC 8785 order. Leaf nodes carry no "children" key, which
// lets FromJSON restore exactly which nodes are containers.
package render
