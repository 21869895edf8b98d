package plugin_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	Sp "github.com/maroda/sargam/plugin"
)

func TestJSONSampleDecoder_Decode(t *testing.T) {
	dec := Sp.NewJSONSampleDecoder()

	t.Run("Decodes a full frame", func(t *testing.T) {
		s, err := dec.Decode([]byte(`{"frequency": 349.23, "confidence": 0.8, "timestamp": 1500}`))
		require.NoError(t, err)
		assert.Equal(t, 349.23, s.FrequencyHz)
		assert.Equal(t, 0.8, s.Confidence)
		assert.Equal(t, int64(1500), s.TimestampMs)
	})

	t.Run("Missing confidence is full confidence", func(t *testing.T) {
		s, err := dec.Decode([]byte(`{"frequency": 440}`))
		require.NoError(t, err)
		assert.Equal(t, 1.0, s.Confidence)
		assert.Zero(t, s.TimestampMs)
	})

	t.Run("Missing frequency is an error", func(t *testing.T) {
		_, err := dec.Decode([]byte(`{"confidence": 0.8}`))
		assert.ErrorContains(t, err, "frequency")
	})

	t.Run("Bad JSON is an error", func(t *testing.T) {
		_, err := dec.Decode([]byte(`{frequency`))
		assert.Error(t, err)
	})

	t.Run("Follows dotted keys", func(t *testing.T) {
		nested := &Sp.JSONSampleDecoder{
			FrequencyKey:  "pitch.hz",
			ConfidenceKey: "pitch.clarity",
			TimestampKey:  "t",
		}
		s, err := nested.Decode([]byte(`{"pitch": {"hz": 220, "clarity": 0.4}, "t": 9}`))
		require.NoError(t, err)
		assert.Equal(t, 220.0, s.FrequencyHz)
		assert.Equal(t, 0.4, s.Confidence)
		assert.Equal(t, int64(9), s.TimestampMs)
	})
}

func TestExtractValue(t *testing.T) {
	var data interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"a": {"b": 3}, "list": [1, 2], "name": "yaman"}`), &data))

	t.Run("Finds a nested number", func(t *testing.T) {
		v, err := Sp.ExtractValue(data, "a.b")
		require.NoError(t, err)
		assert.Equal(t, 3.0, v)
	})

	t.Run("Accepts json.Number", func(t *testing.T) {
		v, err := Sp.ExtractValue(map[string]interface{}{"n": json.Number("1.5")}, "n")
		require.NoError(t, err)
		assert.Equal(t, 1.5, v)
	})

	t.Run("Refuses arrays", func(t *testing.T) {
		_, err := Sp.ExtractValue(data, "list.0")
		assert.Error(t, err)
	})

	t.Run("Refuses strings", func(t *testing.T) {
		_, err := Sp.ExtractValue(data, "name")
		assert.Error(t, err)
	})

	t.Run("Refuses missing keys", func(t *testing.T) {
		_, err := Sp.ExtractValue(data, "a.c")
		assert.ErrorContains(t, err, "key c not found")
	})
}
