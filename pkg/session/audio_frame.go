package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Metric names sonified per commit.
const (
	MetricLines = "lines"
	MetricFiles = "files"
	MetricBytes = "bytes"
)

// voiceFieldCount is the number of elements in one encoded voice tuple.
const voiceFieldCount = 3

// Sentinel errors for frame decoding.
var (
	ErrEmptyFrame = errors.New("audio frame has no intensity")
	ErrShortVoice = errors.New("voice tuple too short")
)

// Voice is one language's contribution to a metric frame. Index refers into
// the session's AllLanguages ordering.
type Voice struct {
	Index  int
	Gain   float64
	Detune float64
}

// MetricFrame is the sonification of one metric at one commit: a master
// intensity in [0,1] plus only the active voices (silence is implicit).
type MetricFrame struct {
	Intensity float64
	Voices    []Voice
}

// AudioFrame maps metric name to its frame for one commit.
type AudioFrame map[string]MetricFrame

// MarshalJSON encodes the frame in its compact wire form:
// [intensity, [index, gain, detune], ...].
func (f MetricFrame) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, 1+len(f.Voices))
	arr = append(arr, f.Intensity)

	for _, v := range f.Voices {
		arr = append(arr, []any{v.Index, v.Gain, v.Detune})
	}

	data, err := json.Marshal(arr)
	if err != nil {
		return nil, fmt.Errorf("marshal metric frame: %w", err)
	}

	return data, nil
}

// UnmarshalJSON decodes the compact wire form back into a MetricFrame.
func (f *MetricFrame) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("unmarshal metric frame: %w", err)
	}

	if len(raw) == 0 {
		return ErrEmptyFrame
	}

	err = json.Unmarshal(raw[0], &f.Intensity)
	if err != nil {
		return fmt.Errorf("unmarshal frame intensity: %w", err)
	}

	f.Voices = nil

	for _, voiceRaw := range raw[1:] {
		var tuple []float64

		err = json.Unmarshal(voiceRaw, &tuple)
		if err != nil {
			return fmt.Errorf("unmarshal voice tuple: %w", err)
		}

		if len(tuple) < voiceFieldCount {
			return fmt.Errorf("%w: %d elements", ErrShortVoice, len(tuple))
		}

		f.Voices = append(f.Voices, Voice{
			Index:  int(tuple[0]),
			Gain:   tuple[1],
			Detune: tuple[2],
		})
	}

	return nil
}
