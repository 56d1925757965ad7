package session

import (
	"math"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
)

// maxVoices caps the number of ranked languages that may carry a voice.
const maxVoices = 16

// detuneLimit bounds a voice's detune to ±25 units.
const detuneLimit = 25.0

// debutDetune is the fixed signal for a language newly appearing at a commit:
// half the maximum, since a growth rate from zero is undefined. The value is
// a compatibility constant, not a derived quantity.
const debutDetune = 12.5

// metricNames lists the sonified metrics in frame order.
var metricNames = []string{MetricLines, MetricFiles, MetricBytes}

// EncodeAudio computes one AudioFrame per result, deterministically, over the
// whole merged result set and the fixed language ordering. Frames are sparse:
// only voices with a non-zero stored gain appear.
func EncodeAudio(results []CommitRecord, languages []string) []AudioFrame {
	frames := make([]AudioFrame, 0, len(results))
	if len(results) == 0 {
		return frames
	}

	voiceLangs := languages
	if len(voiceLangs) > maxVoices {
		voiceLangs = voiceLangs[:maxVoices]
	}

	for metricIdx, metric := range metricNames {
		minTotal, maxTotal := totalRange(results, metric)

		for i, rec := range results {
			if metricIdx == 0 {
				frames = append(frames, AudioFrame{})
			}

			var prev *CommitRecord
			if i > 0 {
				prev = &results[i-1]
			}

			frames[i][metric] = encodeMetricFrame(rec, prev, metric, voiceLangs, minTotal, maxTotal)
		}
	}

	return frames
}

// totalRange scans every commit's per-commit metric total and returns the
// session-wide minimum and maximum, the global normalization range.
func totalRange(results []CommitRecord, metric string) (minTotal, maxTotal float64) {
	minTotal = math.Inf(1)
	maxTotal = math.Inf(-1)

	for _, rec := range results {
		total := commitTotal(rec, metric)
		minTotal = math.Min(minTotal, total)
		maxTotal = math.Max(maxTotal, total)
	}

	return minTotal, maxTotal
}

// encodeMetricFrame builds the frame for one commit and one metric.
func encodeMetricFrame(
	rec CommitRecord,
	prev *CommitRecord,
	metric string,
	voiceLangs []string,
	minTotal, maxTotal float64,
) MetricFrame {
	total := commitTotal(rec, metric)

	intensity := 1.0
	if maxTotal > minTotal {
		intensity = round2((total - minTotal) / (maxTotal - minTotal))
	}

	frame := MetricFrame{Intensity: intensity}

	for idx, lang := range voiceLangs {
		value := metricValue(rec.Languages[lang], metric)

		gain := 0.0
		if total > 0 {
			gain = round2(value / total)
		}

		if gain == 0 {
			continue
		}

		frame.Voices = append(frame.Voices, Voice{
			Index:  idx,
			Gain:   gain,
			Detune: round1(detune(value, prev, lang, metric)),
		})
	}

	return frame
}

// detune encodes a voice's relative growth rate scaled into ±detuneLimit.
// A language debuting at this commit gets the fixed debutDetune; the first
// commit of a session has no predecessor and therefore no detune.
func detune(value float64, prev *CommitRecord, lang, metric string) float64 {
	if prev == nil {
		return 0
	}

	prevValue := metricValue(prev.Languages[lang], metric)
	if prevValue > 0 {
		growth := (value - prevValue) / prevValue * detuneLimit

		return math.Max(-detuneLimit, math.Min(detuneLimit, growth))
	}

	if value > 0 {
		return debutDetune
	}

	return 0
}

// commitTotal sums metric across all of the commit's languages.
func commitTotal(rec CommitRecord, metric string) float64 {
	total := 0.0
	for _, ls := range rec.Languages {
		total += metricValue(ls, metric)
	}

	return total
}

// metricValue extracts the metric's raw value from one language's stats.
func metricValue(ls counter.LanguageStats, metric string) float64 {
	switch metric {
	case MetricLines:
		return float64(ls.Code)
	case MetricFiles:
		return float64(ls.Files)
	case MetricBytes:
		return float64(ls.Bytes)
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
