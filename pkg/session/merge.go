package session

import "log/slog"

// Merger decides whether a previously persisted session may seed an
// incremental run. A session failing any gate is treated as absent, never as
// a fatal condition.
type Merger struct {
	repoURL     string
	counterTool string
	logger      *slog.Logger
}

// NewMerger creates a merger for the repository and counter tool of the
// current run.
func NewMerger(repoURL, counterTool string, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Merger{
		repoURL:     repoURL,
		counterTool: counterTool,
		logger:      logger,
	}
}

// Compatible applies the three gates in order: exact schema version, matching
// repository URL (when recorded), matching counter tool (when recorded).
func (m *Merger) Compatible(prior *AnalysisSession) bool {
	if prior == nil {
		return false
	}

	if prior.SchemaVersion != SchemaVersion {
		m.logger.Warn("discarding prior session: schema version mismatch",
			"have", prior.SchemaVersion, "want", SchemaVersion)

		return false
	}

	if prior.Metadata.RepositoryURL != "" && prior.Metadata.RepositoryURL != m.repoURL {
		m.logger.Warn("discarding prior session: repository mismatch",
			"have", prior.Metadata.RepositoryURL, "want", m.repoURL)

		return false
	}

	if prior.Metadata.CounterTool != "" && prior.Metadata.CounterTool != m.counterTool {
		m.logger.Warn("discarding prior session: counter tool mismatch",
			"have", prior.Metadata.CounterTool, "want", m.counterTool)

		return false
	}

	return true
}

// ResumeHash returns the prior session's resume pointer, or empty when the
// session has none.
func (m *Merger) ResumeHash(prior *AnalysisSession) string {
	if prior == nil {
		return ""
	}

	return prior.Metadata.LastCommit
}

// MergeResults appends newly walked records after the retained prior ones.
// Prior records are entirely untouched; the exclusive resume range means no
// deduplication is needed.
func MergeResults(prior, newer []CommitRecord) []CommitRecord {
	merged := make([]CommitRecord, 0, len(prior)+len(newer))
	merged = append(merged, prior...)
	merged = append(merged, newer...)

	return merged
}
