package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clocFixture = `{
  "header": {
    "cloc_url": "github.com/AlDanial/cloc",
    "cloc_version": 1.98,
    "elapsed_seconds": 0.0312,
    "n_files": 9,
    "n_lines": 480,
    "files_per_second": 288.4,
    "lines_per_second": 15384.6
  },
  "Go": {"nFiles": 7, "blank": 50, "comment": 50, "code": 300},
  "Markdown": {"nFiles": 2, "blank": 20, "comment": 0, "code": 60},
  "SUM": {"nFiles": 9, "blank": 70, "comment": 50, "code": 360}
}`

func TestParseClocOutput(t *testing.T) {
	t.Parallel()

	stats, version, err := parseClocOutput([]byte(clocFixture))
	require.NoError(t, err)
	assert.Equal(t, "1.98", version)

	// SUM and header are not languages.
	require.Len(t, stats, 2)

	goStats := stats["Go"]
	assert.Equal(t, 7, goStats.Files)
	assert.Equal(t, 300, goStats.Code)
	assert.Equal(t, 50, goStats.Comment)
	assert.Equal(t, 50, goStats.Blank)

	// cloc reports no complexity, bytes or raw lines; they stay zero.
	assert.Zero(t, goStats.Complexity)
	assert.Zero(t, goStats.Bytes)
	assert.Zero(t, goStats.Lines)
}

func TestParseClocOutput_NoHeader(t *testing.T) {
	t.Parallel()

	stats, version, err := parseClocOutput([]byte(`{"Go": {"nFiles": 1, "blank": 0, "comment": 0, "code": 10}}`))
	require.NoError(t, err)
	assert.Empty(t, version)
	assert.Len(t, stats, 1)
}

func TestParseClocOutput_Garbled(t *testing.T) {
	t.Parallel()

	_, _, err := parseClocOutput([]byte(`Perl says no`))
	require.Error(t, err)
}
