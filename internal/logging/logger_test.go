package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("fragtrack", "info", "json", &buf)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Int("events", 3).Msg("run finished")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fragtrack", rec["app"])
	assert.Equal(t, "run finished", rec["message"])
	assert.EqualValues(t, 3, rec["events"])
}

func TestBadOptions(t *testing.T) {
	_, err := New("fragtrack", "loud", "json", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New("fragtrack", "info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
