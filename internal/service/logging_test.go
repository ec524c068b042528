package service_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/service"
)

// methodEvents counts enter and exit records per method in JSON log output.
func methodEvents(t *testing.T, buf *bytes.Buffer) (enters, exits map[string]int) {
	t.Helper()
	enters, exits = map[string]int{}, map[string]int{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		method, _ := line["method"].(string)
		switch line["event"] {
		case "enter":
			enters[method]++
		case "exit":
			exits[method]++
		}
	}
	return enters, exits
}

func TestServices_MethodLogsAreBalanced(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { logger.Initialize("info", "text") })

	ctx := context.Background()
	w := newWorkflow(service.Policy{AllowUnverifiedEmployers: true})

	_, err := w.quotes.Request(ctx, candidate1, employer1.ID, candidate1.ID)
	assert.True(t, domain.IsAuthorization(err))
	_, err = w.quotes.SelectOption(ctx, employer1, "q-missing", "")
	assert.True(t, domain.IsValidation(err))
	_, err = w.verifs.Verify(ctx, employer1, candidate1.ID, "")
	assert.True(t, domain.IsAuthorization(err))
	_, err = w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatus("LOST"), nil)
	assert.True(t, domain.IsValidation(err))
	_, err = w.interviews.Schedule(ctx, employer1, employer1.ID, candidate1.ID, "Intro", nil, "")
	assert.True(t, domain.IsValidation(err))
	_, err = w.demands.Delete(ctx, staff1, "d-missing")
	assert.True(t, domain.IsNotFound(err))

	iv, err := w.interviews.Schedule(ctx, employer1, employer1.ID, candidate1.ID, "Intro", twoSlots(), "")
	require.NoError(t, err)
	_, err = w.interviews.Complete(ctx, employer1, iv.ID)
	requireConflict(t, err)

	enters, exits := methodEvents(t, &buf)
	assert.NotEmpty(t, enters)
	assert.Equal(t, enters, exits)
}
