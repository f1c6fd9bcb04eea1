package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobReporterLevels(t *testing.T) {
	var buf bytes.Buffer
	report := jobReporter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	report("running:marry#1")
	report("error:marry#1:store went away")
	report("done:divorce#2")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var levels []string
	for _, line := range lines {
		var entry struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		levels = append(levels, entry.Level)
	}
	assert.Equal(t, []string{"debug", "warn", "debug"}, levels)
	assert.Contains(t, lines[1], "error:marry#1:store went away")
}
