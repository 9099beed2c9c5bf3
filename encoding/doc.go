// Package encoding provides the pre-transforms sermap applies before block
// compression.
//
// Two encodings live here:
//
//   - Delta: forward difference over int64 ticks, reversed by prefix sum.
//     Monotonic timestamps become a near-constant sequence that shuffles and
//     compresses to almost nothing.
//   - Text: a column of length-prefixed UTF-8 strings used for string slices.
//     Frame columns share the layout and carry one compressed element per frame
//     for nested arrays and maps.
//
// Both are pure functions over caller-provided memory; allocation and pooling are
// left to the codec package.
package encoding
