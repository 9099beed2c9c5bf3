package fallback

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type reading struct {
	Sensor string
	Value  float64
	Tags   map[string]string
	Notes  []string
}

func TestSerializers_RoundTrip(t *testing.T) {
	in := reading{
		Sensor: "boiler<1>",
		Value:  73.25,
		Tags:   map[string]string{"site": "north", "unit": "C"},
		Notes:  []string{"calibrated", "a&b"},
	}

	for _, s := range []ObjectSerializer{JSON{}, Gob{}} {
		t.Run(s.Name(), func(t *testing.T) {
			data, err := s.Marshal(in)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			var out reading
			require.NoError(t, s.Unmarshal(data, &out))
			require.Equal(t, in, out)
		})
	}
}

func TestJSON_Compact(t *testing.T) {
	data, err := JSON{}.Marshal(map[string]string{"k": "<v>"})
	require.NoError(t, err)
	require.Equal(t, `{"k":"<v>"}`, string(data))
}

func TestSerializers_Errors(t *testing.T) {
	for _, s := range []ObjectSerializer{JSON{}, Gob{}} {
		t.Run(s.Name(), func(t *testing.T) {
			_, err := s.Marshal(func() {})
			require.Error(t, err)

			require.ErrorIs(t, s.Unmarshal([]byte("{}"), nil), ErrNilTarget)

			var out reading
			require.Error(t, s.Unmarshal([]byte{0xFF, 0x00, 0x13}, &out))
		})
	}
}

func TestByName(t *testing.T) {
	s, err := ByName("json")
	require.NoError(t, err)
	require.Equal(t, "json", s.Name())

	s, err = ByName("")
	require.NoError(t, err)
	require.Equal(t, "json", s.Name())

	s, err = ByName("gob")
	require.NoError(t, err)
	require.Equal(t, "gob", s.Name())

	_, err = ByName("xml")
	require.Error(t, err)

	require.Equal(t, "json", Default().Name())
}
