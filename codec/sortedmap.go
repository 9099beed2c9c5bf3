package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sermap/compress"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/internal/hash"
	"github.com/arloliu/sermap/internal/pool"
	"github.com/arloliu/sermap/section"
	"github.com/arloliu/sermap/sortedmap"
)

// CompressMap serializes m into a sorted-map envelope.
//
// Keys are compressed on a background goroutine while values are compressed
// on the calling one. Regular keys are stored as a (first, step) pair at level 0.
//
// Parameters:
//   - s: Serializer providing the defaults
//   - m: Map to serialize; must not be mutated during the call
//   - opts: Per-call overrides of the serializer defaults
//
// Returns:
//   - []byte: The envelope, or an empty slice for an empty map
//   - error: errs.ErrNilMap, errs.ErrHeaderOverflow, errs.ErrUnsupportedType,
//     errs.ErrInvalidParams or errs.ErrCompressionFailure
func CompressMap[K, V any](s *Serializer, m *sortedmap.SortedMap[K, V], opts ...compress.ParamOption) ([]byte, error) {
	return CompressMapTo(s, m, CopyToNew, opts...)
}

// CompressMapTo is CompressMap handing the envelope to transform. The envelope
// buffer is allocated once at its final size and passed as owned.
func CompressMapTo[K, V, R any](s *Serializer, m *sortedmap.SortedMap[K, V], transform Transform[R], opts ...compress.ParamOption) (R, error) {
	var zero R
	if m == nil {
		return zero, errs.ErrNilMap
	}

	if err := checkSupported(m.KeyType()); err != nil {
		return zero, err
	}

	if err := checkSupported(m.ValueType()); err != nil {
		return zero, err
	}

	p, err := s.callParams(opts...)
	if err != nil {
		return zero, err
	}

	if m.Len() == 0 {
		return transform([]byte{}, 0, true)
	}

	result := zero
	err = s.compressEnvelope(m, p, func(h section.MapHeader, keys, values []byte) error {
		envelope := make([]byte, h.ValuesOffset+len(values))
		h.Put(envelope)
		copy(envelope[section.MapKeysOffset:], keys)
		copy(envelope[h.ValuesOffset:], values)

		var err error
		result, err = transform(envelope, len(envelope), true)

		return err
	})
	if err != nil {
		return zero, err
	}

	return result, nil
}

// DecompressMap decodes an envelope produced by CompressMap. Keys are ordered
// by sortedmap.DefaultComparer[K].
//
// Returns:
//   - *sortedmap.SortedMap[K, V]: The map with its version and read-only flag
//     restored; an empty map for empty data
//   - error: errs.ErrCorruptEnvelope (errs.ErrCorruptBlock included),
//     errs.ErrNoComparer or errs.ErrSizeMismatch
func DecompressMap[K, V any](s *Serializer, data []byte) (*sortedmap.SortedMap[K, V], error) {
	return DecompressMapFunc[K, V](s, data, nil)
}

// DecompressMapFunc is DecompressMap with a caller-supplied key ordering.
// A nil compare selects sortedmap.DefaultComparer[K].
func DecompressMapFunc[K, V any](s *Serializer, data []byte, compare func(a, b K) int) (*sortedmap.SortedMap[K, V], error) {
	m := &sortedmap.SortedMap[K, V]{}
	if compare != nil {
		m = sortedmap.NewFunc[K, V](compare, 0)
	}

	if err := s.decodeEnvelope(m, data); err != nil {
		return nil, err
	}

	return m, nil
}

// compressEnvelope compresses the keys and values of env concurrently and
// passes both blocks with the header to assemble. The blocks are pooled and
// only valid during assemble.
func (s *Serializer) compressEnvelope(env sortedmap.Envelope, p compress.Params, assemble func(h section.MapHeader, keys, values []byte) error) error {
	count := env.Len()
	if count > section.MaxMapCount {
		return fmt.Errorf("%w: count %d", errs.ErrHeaderOverflow, count)
	}

	keys, values := env.Snapshot()
	// RegularPair leaves the regularity cache alone, so a shared map can be
	// compressed from several goroutines.
	pair, regular := env.RegularPair()

	keysRV := reflect.ValueOf(keys)
	keysParams := p
	if regular {
		keysRV = reflect.ValueOf(pair)
		keysParams.Level = 0
	}

	keysBuf := pool.GetBlockBuffer()

	var g errgroup.Group
	g.Go(func() error {
		out, err := s.appendSlice(keysBuf.B[:0], keysRV, keysParams)
		keysBuf.B = out

		return err
	})
	defer func() {
		_ = g.Wait()
		pool.PutBlockBuffer(keysBuf)
	}()

	_, err := compressSliceTo(s, reflect.ValueOf(values), p, func(buf []byte, n int, _ bool) (struct{}, error) {
		if err := g.Wait(); err != nil {
			return struct{}{}, err
		}

		h, err := section.NewMapHeader(count, env.Version(), regular, env.IsReadOnly(), keysBuf.Len())
		if err != nil {
			return struct{}{}, err
		}

		return struct{}{}, assemble(h, keysBuf.B, buf[:n])
	})

	return err
}

// appendEnvelope appends the envelope of env to dst. An empty map appends nothing.
func (s *Serializer) appendEnvelope(dst []byte, env sortedmap.Envelope, p compress.Params) ([]byte, error) {
	if env.Len() == 0 {
		return dst, nil
	}

	err := s.compressEnvelope(env, p, func(h section.MapHeader, keys, values []byte) error {
		dst = append(dst, h.Bytes()...)
		dst = append(dst, keys...)
		dst = append(dst, values...)

		return nil
	})

	return dst, err
}

// decodeEnvelope restores env from data. Empty data restores an empty map.
func (s *Serializer) decodeEnvelope(env sortedmap.Envelope, data []byte) error {
	keysType := reflect.SliceOf(env.KeyType())
	valuesType := reflect.SliceOf(env.ValueType())

	if len(data) == 0 {
		return env.Restore(reflect.MakeSlice(keysType, 0, 0).Interface(),
			reflect.MakeSlice(valuesType, 0, 0).Interface(), sortedmap.State{})
	}

	h, err := section.ParseMapHeader(data)
	if err != nil {
		return err
	}

	keysBlock, valuesBlock := h.KeysBlock(data), h.ValuesBlock(data)

	if sizes := s.bc.ProbeSizes(keysBlock); sizes.Compressed != len(keysBlock) {
		return fmt.Errorf("%w: values offset %d does not end the keys block (%d bytes)",
			errs.ErrCorruptEnvelope, h.ValuesOffset, section.MapKeysOffset+sizes.Compressed)
	}

	if sizes := s.bc.ProbeSizes(valuesBlock); sizes.Compressed != len(valuesBlock) {
		return fmt.Errorf("%w: values block is %d bytes, envelope holds %d",
			errs.ErrCorruptEnvelope, sizes.Compressed, len(valuesBlock))
	}

	var (
		g    errgroup.Group
		keys reflect.Value
	)
	g.Go(func() error {
		var err error
		keys, err = s.decodeSlice(keysType, keysBlock)

		return err
	})

	values, err := s.decodeSlice(valuesType, valuesBlock)
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	if values.Len() != h.Count {
		return fmt.Errorf("%w: %d values, header count %d", errs.ErrCorruptEnvelope, values.Len(), h.Count)
	}

	state := sortedmap.State{Version: h.Version, ReadOnly: h.ReadOnly}

	if h.Regular {
		if keys.Len() != 2 {
			return fmt.Errorf("%w: regular keys block holds %d keys, want 2", errs.ErrCorruptEnvelope, keys.Len())
		}

		return env.RestoreRegular(keys.Interface(), values.Interface(), state)
	}

	if keys.Len() != h.Count {
		return fmt.Errorf("%w: %d keys, header count %d", errs.ErrCorruptEnvelope, keys.Len(), h.Count)
	}

	return env.Restore(keys.Interface(), values.Interface(), state)
}

// KeysDigest returns the BLAKE3 digest of the keys block of an envelope.
// Envelopes with equal digests and equal count fields hold equal keys.
//
// Returns:
//   - [32]byte: Digest of the keys block; the digest of nothing for empty data
//   - error: errs.ErrCorruptEnvelope if the header is invalid
func KeysDigest(data []byte) ([hash.DigestSize]byte, error) {
	if len(data) == 0 {
		return hash.Digest(nil), nil
	}

	h, err := section.ParseMapHeader(data)
	if err != nil {
		return [hash.DigestSize]byte{}, err
	}

	return hash.Digest(h.KeysBlock(data)), nil
}

// KeysCertainlyEqual reports whether two envelopes certainly hold equal keys
// without decompressing them. Envelopes written with different parameters may
// hold equal keys and still report false.
func KeysCertainlyEqual(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}

	ha, err := section.ParseMapHeader(a)
	if err != nil {
		return false
	}

	hb, err := section.ParseMapHeader(b)
	if err != nil {
		return false
	}

	if ha.Count != hb.Count || ha.Regular != hb.Regular {
		return false
	}

	return bytes.Equal(ha.KeysBlock(a), hb.KeysBlock(b))
}
