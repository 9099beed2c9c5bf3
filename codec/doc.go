// Package codec implements the type-directed serializer on top of the block
// compressor.
//
// Every element type resolves once to a Strategy that names its encoding:
//
//   - RawBlittable: fixed-layout values (numbers, bools, fixed arrays and structs
//     of those), written as little-endian element memory and compressed with
//     the shuffle filter at the element stride.
//   - DeltaEncoded: time.Time, converted to int64 Unix-nanosecond ticks and
//     forward-differenced before compression.
//   - Utf8Text: strings, written as a length-prefixed text column.
//   - NestedArray and NestedSortedMap: slices and *sortedmap.SortedMap values,
//     compressed element by element into a frame column.
//   - ObjectFallback: everything else, handed to the configured
//     fallback.ObjectSerializer.
//
// # Sorted maps
//
// A sorted map is written as a 12-byte header followed by a keys block and a
// values block (see section.MapHeader). Maps with regular keys store only the
// first key and the step, so the keys block has the same size for any map length.
// Keys and values are compressed concurrently.
//
// # Basic Usage
//
//	s, err := codec.New(codec.WithMethod(format.MethodBalanced))
//	if err != nil {
//	    return err
//	}
//
//	data, err := codec.CompressArray(s, values, 0, 0)
//	...
//	restored, err := codec.DecompressArray[float64](s, data)
//
// # Thread Safety
//
// A Serializer is immutable after New and safe for concurrent use. Sources must
// not be mutated while they are being compressed.
package codec
