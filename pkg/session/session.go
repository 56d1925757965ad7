// Package session holds the persisted analysis artifact: the chronological
// per-commit composition records, the stable language ordering and the
// precomputed sonification frames, plus the merge/rank/encode logic that
// derives them.
package session

import (
	"time"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
)

// SchemaVersion gates compatibility of persisted sessions. Any mismatch
// forces a full recompute rather than an incremental merge.
const SchemaVersion = "2.0"

// CommitRecord is the composition of the repository at one commit. It is
// created once when the commit is first analyzed and never mutated afterward.
type CommitRecord struct {
	Commit    string                           `json:"commit"`
	Date      time.Time                        `json:"date"`
	Message   string                           `json:"message"`
	Analysis  counter.Meta                     `json:"analysis"`
	Languages map[string]counter.LanguageStats `json:"languages"`

	// Totals are always recomputed from Languages, never independently set.
	TotalLines int   `json:"totalLines"`
	TotalFiles int   `json:"totalFiles"`
	TotalBytes int64 `json:"totalBytes"`
}

// NewCommitRecord builds a record with its totals derived from languages.
func NewCommitRecord(
	hash string,
	date time.Time,
	message string,
	languages map[string]counter.LanguageStats,
	analysis counter.Meta,
) CommitRecord {
	if languages == nil {
		languages = map[string]counter.LanguageStats{}
	}

	rec := CommitRecord{
		Commit:    hash,
		Date:      date,
		Message:   message,
		Analysis:  analysis,
		Languages: languages,
	}

	for _, ls := range languages {
		rec.TotalLines += ls.Code
		rec.TotalFiles += ls.Files
		rec.TotalBytes += ls.Bytes
	}

	return rec
}

// Metadata describes the analysis run that produced a session.
type Metadata struct {
	RepositoryURL string    `json:"repository_url"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
	CounterTool   string    `json:"counter_tool"`

	// LastCommit is the resume pointer: the hash of the newest analyzed
	// commit, used to bound the next incremental walk.
	LastCommit string `json:"last_commit,omitempty"`
}

// AnalysisSession is the full persisted artifact. Results are strictly
// chronological, oldest first; AudioData has one frame per result at the
// same index; AllLanguages is the fixed index space voices refer to.
type AnalysisSession struct {
	SchemaVersion string        `json:"schema_version"`
	Metadata      Metadata      `json:"metadata"`
	Results       []CommitRecord `json:"results"`
	AllLanguages  []string      `json:"allLanguages"`
	AudioData     []AudioFrame  `json:"audioData"`
}

// Build assembles a complete session from merged results: ranked language
// order, audio frames and the resume pointer are all derived here, over the
// whole result set.
func Build(results []CommitRecord, repoURL, counterTool string, analyzedAt time.Time) *AnalysisSession {
	if results == nil {
		results = []CommitRecord{}
	}

	languages := RankLanguages(results)

	meta := Metadata{
		RepositoryURL: repoURL,
		AnalyzedAt:    analyzedAt,
		CounterTool:   counterTool,
	}

	if len(results) > 0 {
		meta.LastCommit = results[len(results)-1].Commit
	}

	return &AnalysisSession{
		SchemaVersion: SchemaVersion,
		Metadata:      meta,
		Results:       results,
		AllLanguages:  languages,
		AudioData:     EncodeAudio(results, languages),
	}
}
