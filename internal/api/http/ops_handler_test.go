package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"hireflow/internal/jobs"
)

type mockPinger struct{ mock.Mock }

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockJobs struct{ mock.Mock }

func (m *mockJobs) RunJob(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockJobs) JobNames() []string {
	return m.Called().Get(0).([]string)
}

func serve(h *OpsHandler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestOpsHandler_Health(t *testing.T) {
	h := NewOpsHandler(new(mockPinger), new(mockJobs))
	rec := serve(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOpsHandler_Ready(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		p := new(mockPinger)
		p.On("Ping", mock.Anything).Return(nil)
		rec := serve(NewOpsHandler(p, new(mockJobs)), http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		p.AssertExpectations(t)
	})

	t.Run("StoreDown", func(t *testing.T) {
		p := new(mockPinger)
		p.On("Ping", mock.Anything).Return(errors.New("connection refused"))
		rec := serve(NewOpsHandler(p, new(mockJobs)), http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestOpsHandler_RunJob(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		j := new(mockJobs)
		j.On("RunJob", "expire-stale-quotes").Return(nil)
		rec := serve(NewOpsHandler(new(mockPinger), j), http.MethodPost, "/jobs/expire-stale-quotes")
		assert.Equal(t, http.StatusOK, rec.Code)
		j.AssertExpectations(t)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		j := new(mockJobs)
		j.On("RunJob", "nope").Return(fmt.Errorf("%w: nope", jobs.ErrUnknownJob))
		rec := serve(NewOpsHandler(new(mockPinger), j), http.MethodPost, "/jobs/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Failure", func(t *testing.T) {
		j := new(mockJobs)
		j.On("RunJob", "send-pending-review-digest").Return(errors.New("db down"))
		rec := serve(NewOpsHandler(new(mockPinger), j), http.MethodPost, "/jobs/send-pending-review-digest")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		rec := serve(NewOpsHandler(new(mockPinger), new(mockJobs)), http.MethodGet, "/jobs/expire-stale-quotes")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestOpsHandler_ListJobs(t *testing.T) {
	j := new(mockJobs)
	j.On("JobNames").Return([]string{"a", "b"})
	rec := serve(NewOpsHandler(new(mockPinger), j), http.MethodGet, "/jobs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":["a","b"]}`, rec.Body.String())
}
