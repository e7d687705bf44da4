package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conghuan0502/planzaa-api/pkg/jobs"
)

func TestSchedulerStatusStopped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := jobs.NewRunner(nil)
	require.NoError(t, runner.Register(jobs.Cadence{Name: "reminder-check-24h", Interval: time.Minute, Task: func(context.Context) {}}))
	handler := NewSchedulerHandler(runner)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/scheduler/status", nil)

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data jobs.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Running)
	assert.Empty(t, envelope.Data.ActiveCadences)
}

func TestSchedulerStatusRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := jobs.NewRunner(nil)
	require.NoError(t, runner.Register(jobs.Cadence{Name: "reminder-check-24h", Interval: time.Minute, Task: func(context.Context) {}}))
	require.NoError(t, runner.Register(jobs.Cadence{Name: "reminder-check-2h", Interval: time.Minute, Task: func(context.Context) {}}))
	runner.Start(context.Background())
	defer runner.Stop()

	handler := NewSchedulerHandler(runner)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/scheduler/status", nil)

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data jobs.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Running)
	assert.Equal(t, []string{"reminder-check-24h", "reminder-check-2h"}, envelope.Data.ActiveCadences)
}

func TestParseEventFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/events?status=ACTIVE&from=2026-10-01T00:00:00Z&page=2&page_size=10&search=offsite", nil)

	filter, err := parseEventFilter(c)
	require.NoError(t, err)
	require.NotNil(t, filter.Status)
	assert.Equal(t, "ACTIVE", string(*filter.Status))
	require.NotNil(t, filter.From)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 10, filter.PageSize)
	assert.Equal(t, "offsite", filter.Search)
	assert.Nil(t, filter.To)
}

func TestParseEventFilterRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/events?from=yesterday", nil)

	_, err := parseEventFilter(c)
	assert.Error(t, err)
}
