// Package script runs YAML edit scripts against an editor engine.
//
// Scripts drive the same command, placement and history paths an
// interactive editor uses, with deterministic block ids, so their outcome
// can be compared against golden files.
//
// # Script Format
//
//	name: welcome
//	description: "What this script builds"
//	root:
//	  props: { backdropColor: "#EEEEEE" }
//	steps:
//	  - op: create
//	    type: Heading
//	    parent: root
//	    props: { text: Welcome }
//	    as: title
//	  - op: move
//	    id: $title
//	    parent: $cols
//	    index: 0
//	  - op: remove
//	    id: root
//	    expect_error: ROOT_REMOVAL
//
// # Operations
//
//   - create: type, parent, optional index/style/props
//   - remove: id
//   - reorder: parent, from, to
//   - update_props / update_style: id, props or style
//   - move: id, parent, optional index
//   - duplicate: id
//   - drop: type (new block) or id (existing block), parent, optional index
//   - undo / redo
//
// A step's `as` names the block it created or addressed; later steps refer
// to it as `$name`. A step with expect_error must fail with that error code.
//
// # Deterministic Runs
//
// Block ids come from a sequence generator ("b1", "b2", ...) unless the
// caller overrides the id generator.
package script
