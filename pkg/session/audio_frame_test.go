package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricFrame_MarshalWireForm(t *testing.T) {
	t.Parallel()

	frame := MetricFrame{
		Intensity: 0.75,
		Voices: []Voice{
			{Index: 0, Gain: 0.6, Detune: -2.5},
			{Index: 3, Gain: 0.4, Detune: 12.5},
		},
	}

	data, err := json.Marshal(frame)
	require.NoError(t, err)

	assert.JSONEq(t, `[0.75,[0,0.6,-2.5],[3,0.4,12.5]]`, string(data))
}

func TestMetricFrame_MarshalNoVoices(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(MetricFrame{Intensity: 1})
	require.NoError(t, err)

	assert.JSONEq(t, `[1]`, string(data))
}

func TestMetricFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	original := MetricFrame{
		Intensity: 0.33,
		Voices: []Voice{
			{Index: 1, Gain: 0.9, Detune: 25},
			{Index: 15, Gain: 0.1, Detune: -25},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded MetricFrame
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
}

func TestMetricFrame_UnmarshalErrors(t *testing.T) {
	t.Parallel()

	var frame MetricFrame

	require.ErrorIs(t, frame.UnmarshalJSON([]byte(`[]`)), ErrEmptyFrame)
	require.ErrorIs(t, frame.UnmarshalJSON([]byte(`[0.5,[1,0.2]]`)), ErrShortVoice)
	require.Error(t, frame.UnmarshalJSON([]byte(`{"intensity":1}`)))
}

func TestAudioFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	original := AudioFrame{
		MetricLines: {Intensity: 1, Voices: []Voice{{Index: 0, Gain: 1, Detune: 0}}},
		MetricFiles: {Intensity: 0.5},
		MetricBytes: {Intensity: 0},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded AudioFrame
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
}
