// Package schema implements the block-type registry.
//
// The registry maps a block-type name to a payload validator, a
// "renders children" capability flag and a markup renderer. It is populated
// once at startup and sealed; after Seal it is read-only and safe to share
// process-wide.
//
// Block payloads are described in CUE. A schema source declares a top-level
// `types` struct whose entries carry a container flag and a payload
// definition:
//
//	types: {
//		Text: {container: false, payload: #Text}
//	}
//
// Builtin returns the email block set compiled from the embedded blocks.cue,
// each type paired with an inline-styled markup renderer.
package schema
