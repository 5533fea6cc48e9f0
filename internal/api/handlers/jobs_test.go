package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

func TestJobsHandler_Trigger(t *testing.T) {
	ran := false
	h := NewJobsHandler(map[string]JobTrigger{
		"sweep": func(context.Context) (any, error) {
			ran = true
			return map[string]int{"moved": 4}, nil
		},
	}, nil)
	r := chi.NewRouter()
	r.Route("/v1/jobs", h.RegisterRoutes)

	rec := doRequest(t, r, http.MethodPost, "/v1/jobs/sweep", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	var envelope struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data["moved"])
}

func TestJobsHandler_UnknownJob(t *testing.T) {
	h := NewJobsHandler(map[string]JobTrigger{}, nil)
	r := chi.NewRouter()
	r.Route("/v1/jobs", h.RegisterRoutes)

	rec := doRequest(t, r, http.MethodPost, "/v1/jobs/compact", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsHandler_TriggerFailure(t *testing.T) {
	h := NewJobsHandler(map[string]JobTrigger{
		"ingest": func(context.Context) (any, error) {
			return nil, types.NewAppError(types.ErrCodeUpstreamProvider, "all providers down", errors.New("dial tcp"))
		},
	}, nil)
	r := chi.NewRouter()
	r.Route("/v1/jobs", h.RegisterRoutes)

	rec := doRequest(t, r, http.MethodPost, "/v1/jobs/ingest", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
