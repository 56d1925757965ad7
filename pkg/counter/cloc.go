package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Keys in cloc's JSON output that are not language entries.
const (
	clocHeaderKey = "header"
	clocSumKey    = "SUM"
)

// clocEntry is one per-language object in cloc's keyed JSON output.
type clocEntry struct {
	NFiles  int `json:"nFiles"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// clocHeader is the aggregate metadata block cloc emits alongside languages.
// Timing fields are parsed but deliberately unused: wall clock is measured by
// the Adapter so both backends report comparable numbers.
type clocHeader struct {
	ClocVersion    json.Number `json:"cloc_version"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
	NFiles         int         `json:"n_files"`
	NLines         int         `json:"n_lines"`
}

// clocBackend runs cloc, the traditional counter. Its output is a JSON object
// keyed by language name plus a header block and a SUM entry.
type clocBackend struct{}

// Name implements Backend.
func (b *clocBackend) Name() string { return ToolCloc }

// Count implements Backend by invoking `cloc --json`.
func (b *clocBackend) Count(ctx context.Context, dir string) (map[string]LanguageStats, Meta, error) {
	meta := Meta{Tool: ToolCloc}

	cmd := exec.CommandContext(ctx, ToolCloc,
		"--json",
		"--exclude-dir="+strings.Join(excludedDirs, ","),
		dir,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, meta, fmt.Errorf("run cloc: %w", err)
	}

	stats, version, err := parseClocOutput(out)
	if err != nil {
		return nil, meta, err
	}

	meta.ToolVersion = version

	return stats, meta, nil
}

// parseClocOutput normalizes cloc's keyed JSON object into LanguageStats
// records and extracts the tool version from the header block.
// The SUM entry is an aggregate, not a language, and is skipped.
func parseClocOutput(out []byte) (map[string]LanguageStats, string, error) {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(out, &raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse cloc output: %w", err)
	}

	var version string

	if headerRaw, ok := raw[clocHeaderKey]; ok {
		var header clocHeader

		headerErr := json.Unmarshal(headerRaw, &header)
		if headerErr != nil {
			return nil, "", fmt.Errorf("parse cloc header: %w", headerErr)
		}

		version = header.ClocVersion.String()
	}

	stats := make(map[string]LanguageStats, len(raw))

	for name, entryRaw := range raw {
		if name == clocHeaderKey || name == clocSumKey {
			continue
		}

		var entry clocEntry

		entryErr := json.Unmarshal(entryRaw, &entry)
		if entryErr != nil {
			return nil, "", fmt.Errorf("parse cloc entry %q: %w", name, entryErr)
		}

		stats[name] = LanguageStats{
			Files:   entry.NFiles,
			Blank:   entry.Blank,
			Comment: entry.Comment,
			Code:    entry.Code,
		}
	}

	return stats, version, nil
}
