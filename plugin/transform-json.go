package plugin

/*
	JSONSample

	Decodes a pitch stream frame into a PitchSample.

	Frames come from whatever detector the client runs, so
	the keys are configurable as dotted paths into the object.
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	St "github.com/maroda/sargam/types"
)

type JSONSampleDecoder struct {
	FrequencyKey  string
	ConfidenceKey string
	TimestampKey  string
}

// NewJSONSampleDecoder uses the default keys: frequency, confidence, timestamp.
func NewJSONSampleDecoder() *JSONSampleDecoder {
	return &JSONSampleDecoder{
		FrequencyKey:  "frequency",
		ConfidenceKey: "confidence",
		TimestampKey:  "timestamp",
	}
}

// Decode extracts a sample from one frame. frequency is required,
// a missing confidence is 1 and a missing timestamp is 0.
func (jd *JSONSampleDecoder) Decode(frame []byte) (St.PitchSample, error) {
	var data interface{}
	if err := json.Unmarshal(frame, &data); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("json", string(frame)),
			slog.Any("error", err))
		return St.PitchSample{}, fmt.Errorf("error unmarshalling json from frame: %w", err)
	}

	freq, err := ExtractValue(data, jd.FrequencyKey)
	if err != nil {
		return St.PitchSample{}, fmt.Errorf("error extracting frequency: %w", err)
	}

	s := St.PitchSample{FrequencyHz: freq, Confidence: 1}
	if c, err := ExtractValue(data, jd.ConfidenceKey); err == nil {
		s.Confidence = c
	}
	if ts, err := ExtractValue(data, jd.TimestampKey); err == nil {
		s.TimestampMs = int64(ts)
	}
	return s, nil
}

// ExtractValue walks a dotted key path and returns the number found there.
func ExtractValue(data interface{}, path string) (float64, error) {
	keys := strings.Split(path, ".")
	current := data

	for _, key := range keys {
		switch v := current.(type) {
		case map[string]interface{}:
			var ok bool
			current, ok = v[key]
			if !ok {
				return 0, fmt.Errorf("key %s not found", key)
			}
		case []interface{}:
			return 0, fmt.Errorf("array indexing not implemented yet")
		default:
			return 0, fmt.Errorf("cannot traverse into type %T at key %s", v, key)
		}
	}

	switch v := current.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("error converting json.Number to float64: %w", err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value not numeric, cannot traverse %T", v)
	}
}
