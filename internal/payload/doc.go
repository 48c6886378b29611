// Package payload provides the opaque style/props values carried by blocks.
//
// The editing engine never interprets a payload; only the schema registry
// inspects its shape. Payloads are still constrained so that every document
// has exactly one canonical byte encoding:
//   - NO floats - use int64 for numbers
//   - NO null - absent keys are simply absent
//   - Object keys serialize in RFC 8785 order (UTF-16 code units)
//   - Strings are NFC normalized at the serialization boundary
//
// payload imports nothing internal.
package payload
