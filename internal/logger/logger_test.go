package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	Transition("quote request", "q-1", "PENDING", "APPROVED", "staff-1", "employerID", "emp-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "State transition", line["msg"])
	assert.Equal(t, "quote request", line["entity"])
	assert.Equal(t, "q-1", line["id"])
	assert.Equal(t, "PENDING", line["from"])
	assert.Equal(t, "APPROVED", line["to"])
	assert.Equal(t, "staff-1", line["actor"])
	assert.Equal(t, "emp-1", line["employerID"])
}

func TestInitialize_Level(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	Info("hidden")
	EnterMethod("svc.Method")
	assert.Empty(t, buf.String())

	Warn("shown", "key", "value")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")
}
