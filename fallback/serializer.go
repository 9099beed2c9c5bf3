// Package fallback holds the generic object serializers used for values that
// have no dedicated sermap encoding.
//
// The codec package compresses whatever an ObjectSerializer produces, so an
// implementation only has to map a value to bytes and back.
package fallback

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/bytebufferpool"
)

// ErrNilTarget is returned by Unmarshal when the target is nil.
var ErrNilTarget = errors.New("fallback: nil unmarshal target")

// ObjectSerializer converts arbitrary values to bytes and back.
//
// Implementations must be safe for concurrent use.
type ObjectSerializer interface {
	// Marshal encodes v. The returned slice is owned by the caller.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes data into the value pointed to by v.
	Unmarshal(data []byte, v any) error
	// Name identifies the serializer in logs and configuration.
	Name() string
}

// Default returns the serializer used when none is configured.
func Default() ObjectSerializer {
	return JSON{}
}

// ByName returns a built-in serializer ("json" or "gob").
func ByName(name string) (ObjectSerializer, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "gob":
		return Gob{}, nil
	default:
		return nil, fmt.Errorf("unknown object serializer %q", name)
	}
}

// JSON serializes values with encoding/json through pooled buffers.
// HTML escaping is disabled, so payloads keep '<', '>' and '&' verbatim.
type JSON struct{}

var _ ObjectSerializer = JSON{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Marshal encodes v as compact JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("fallback json marshal: %w", err)
	}

	// Encoder terminates every value with a newline
	out := bytes.TrimSuffix(buf.B, []byte{'\n'})

	return bytes.Clone(out), nil
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if v == nil {
		return ErrNilTarget
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("fallback json unmarshal: %w", err)
	}

	return nil
}

// Gob serializes values with encoding/gob. Unlike JSON it keeps the exact
// numeric types of interface-typed fields, but concrete types stored in
// interfaces must be registered with gob.Register.
type Gob struct{}

var _ ObjectSerializer = Gob{}

// Name returns "gob".
func (Gob) Name() string { return "gob" }

// Marshal encodes v as a self-contained gob stream.
func (Gob) Marshal(v any) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("fallback gob marshal: %w", err)
	}

	return bytes.Clone(buf.B), nil
}

// Unmarshal decodes a gob stream into v.
func (Gob) Unmarshal(data []byte, v any) error {
	if v == nil {
		return ErrNilTarget
	}

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("fallback gob unmarshal: %w", err)
	}

	return nil
}
