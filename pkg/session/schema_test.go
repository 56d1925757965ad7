package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
)

func TestValidateDocument_Valid(t *testing.T) {
	t.Parallel()

	results := []CommitRecord{
		record("c1", map[string]counter.LanguageStats{"Go": {Code: 10, Files: 1}}),
	}

	data, err := json.Marshal(Build(results, "url", "scc", time.Now()))
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_WrongShape(t *testing.T) {
	t.Parallel()

	err := ValidateDocument([]byte(`{"schema_version": 2, "results": "not-a-list"}`))

	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidateDocument_NotJSON(t *testing.T) {
	t.Parallel()

	assert.Error(t, ValidateDocument([]byte(`<html>`)))
}
