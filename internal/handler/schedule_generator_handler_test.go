package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/middleware"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type scheduleGeneratorMock struct {
	captured dto.GenerateScheduleRequest
	resp     *dto.GenerateScheduleResponse
	hit      bool
	err      error
}

func (m *scheduleGeneratorMock) Generate(_ context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, bool, error) {
	m.captured = req
	return m.resp, m.hit, m.err
}

func newGeneratorRouter(mock *scheduleGeneratorMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.POST("/schedules/generate", NewScheduleGeneratorHandler(mock).Generate)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScheduleGeneratorHandlerGenerate(t *testing.T) {
	mock := &scheduleGeneratorMock{
		resp: &dto.GenerateScheduleResponse{Status: dto.StatusOK, Courses: []string{"CS100", "MATH200"}, Count: 1},
		hit:  true,
	}
	router := newGeneratorRouter(mock)

	rec := postJSON(router, "/schedules/generate",
		`{"courses":["cs 100",{"subject":"MATH","code":200}],"prefs":{"excludeDays":["Fri"],"startAfter":"09:00"},"limit":5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mock.captured.Courses, 2)
	assert.Equal(t, "CS100", mock.captured.Courses[0].ID)
	assert.Equal(t, "MATH200", mock.captured.Courses[1].ID)
	assert.Equal(t, []string{"Fri"}, mock.captured.Preferences.ExcludeDays)
	assert.Equal(t, "09:00", mock.captured.Preferences.StartAfter)
	assert.Equal(t, 5, mock.captured.Limit)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "OK", envelope.Data["status"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, false, envelope.Meta["capped"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestScheduleGeneratorHandlerNoFeasibleScheduleIsOK(t *testing.T) {
	mock := &scheduleGeneratorMock{resp: &dto.GenerateScheduleResponse{
		Status: dto.StatusNoFeasibleSchedule,
		Reason: dto.ReasonAllConflicting,
	}}
	rec := postJSON(newGeneratorRouter(mock), "/schedules/generate", `{"courses":["CS100","PHYS150"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, dto.StatusNoFeasibleSchedule, envelope.Data["status"])
	assert.Equal(t, dto.ReasonAllConflicting, envelope.Data["reason"])
}

func TestScheduleGeneratorHandlerMalformedBody(t *testing.T) {
	rec := postJSON(newGeneratorRouter(&scheduleGeneratorMock{}), "/schedules/generate", `{"courses":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestScheduleGeneratorHandlerCourseNotFound(t *testing.T) {
	mock := &scheduleGeneratorMock{err: appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrCourseNotFound, "courses not found in the catalog: NOPE999"),
		map[string]any{"failedCourses": []dto.FailedCourse{{Course: "NOPE999", Error: "not found"}}},
	)}
	rec := postJSON(newGeneratorRouter(mock), "/schedules/generate", `{"courses":["NOPE999"]}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "COURSE_NOT_FOUND", envelope.Error.Code)
	failed, ok := envelope.Error.Details["failedCourses"].([]interface{})
	require.True(t, ok)
	require.Len(t, failed, 1)
	assert.Equal(t, "NOPE999", failed[0].(map[string]interface{})["course"])
}
