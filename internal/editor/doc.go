// Package editor provides the Engine, the object an email editor UI talks to.
//
// The Engine owns the current document and its history. UI layers dispatch
// commands and drops to it and re-render from Current or a Change
// notification; they never touch documents directly.
//
// Thread-safety model:
//   - readers (Current, Markup, JSON, CanUndo, ...) may run concurrently
//   - commands, Undo, Redo and Load are serialized
//   - subscribers run after the write lock is released, on the writer's
//     goroutine, and may call back into the Engine
package editor
