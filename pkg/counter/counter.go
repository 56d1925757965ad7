// Package counter abstracts external line-counting tools behind a single
// backend contract producing normalized per-language statistics.
package counter

import (
	"context"
	"errors"
)

// Supported counter tool names.
const (
	ToolScc  = "scc"
	ToolCloc = "cloc"
)

// ErrUnknownTool is returned when the configured counter tool is not supported.
var ErrUnknownTool = errors.New("unknown counter tool")

// excludedDirs are conventional build/dependency directories that are never
// counted, regardless of backend.
var excludedDirs = []string{
	".git",
	".hg",
	".svn",
	".venv",
	"__pycache__",
	"bower_components",
	"build",
	"dist",
	"node_modules",
	"target",
	"vendor",
}

// LanguageStats holds per-language counts for one analyzed tree.
// Complexity, Bytes and Lines are only populated by the scc backend;
// cloc does not report them and they are omitted rather than fabricated.
type LanguageStats struct {
	Files      int   `json:"files"`
	Blank      int   `json:"blank"`
	Comment    int   `json:"comment"`
	Code       int   `json:"code"`
	Complexity int   `json:"complexity,omitempty"`
	Bytes      int64 `json:"bytes,omitempty"`
	Lines      int   `json:"lines,omitempty"`
}

// Meta describes one counting invocation: which tool ran, how long it took
// (wall clock measured by the adapter, never the tool's self-reported timing),
// and the resulting throughput.
type Meta struct {
	Tool           string  `json:"tool"`
	ToolVersion    string  `json:"tool_version,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	FilesPerSecond float64 `json:"files_per_second,omitempty"`
}

// Backend is one external counting tool. Count scans the directory and
// returns per-language statistics keyed by language name.
type Backend interface {
	// Name returns the tool name ("scc" or "cloc").
	Name() string

	// Count invokes the tool against dir. The returned Meta carries tool
	// identity only; timing is filled in by the Adapter.
	Count(ctx context.Context, dir string) (map[string]LanguageStats, Meta, error)
}

// NewBackend returns the backend for the given tool name.
func NewBackend(tool string) (Backend, error) {
	switch tool {
	case ToolScc:
		return &sccBackend{}, nil
	case ToolCloc:
		return &clocBackend{}, nil
	default:
		return nil, ErrUnknownTool
	}
}
