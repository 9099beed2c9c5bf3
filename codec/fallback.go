package codec

import (
	"fmt"

	"github.com/arloliu/sermap/compress"
)

// SerializeFallback encodes v with the object serializer and compresses the
// result with shuffle off.
//
// Returns:
//   - []byte: The compressed block
//   - error: The object serializer error, errs.ErrInvalidParams or errs.ErrCompressionFailure
func (s *Serializer) SerializeFallback(v any, opts ...compress.ParamOption) ([]byte, error) {
	payload, err := s.object.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s object serializer: %w", s.object.Name(), err)
	}

	p, err := s.callParams(opts...)
	if err != nil {
		return nil, err
	}

	return s.bc.Compress(payload, bytesParams(p))
}

// DeserializeFallback decodes data produced by SerializeFallback into the value
// ptr points to. Uncompressed input is handed to the object serializer as is.
func (s *Serializer) DeserializeFallback(data []byte, ptr any) error {
	payload, _, err := s.DecompressBytes(data)
	if err != nil {
		return err
	}

	if err := s.object.Unmarshal(payload, ptr); err != nil {
		return fmt.Errorf("%s object serializer: %w", s.object.Name(), err)
	}

	return nil
}
