package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/dimension"
	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/powerlaw"
)

const defaultInstance = "upload.cnf"

// Handlers contains HTTP request handlers
type Handlers struct {
	service      *features.Service
	jobs         *JobService
	logger       zerolog.Logger
	maxBodyBytes int64
}

// NewHandlers creates new API handlers
func NewHandlers(service *features.Service, jobs *JobService, logger zerolog.Logger) *Handlers {
	return &Handlers{
		service:      service,
		jobs:         jobs,
		logger:       logger,
		maxBodyBytes: service.Config().MaxBodyBytes(),
	}
}

// readFormula parses the request body as DIMACS and answers the request
// itself when that fails
func (h *Handlers) readFormula(w http.ResponseWriter, r *http.Request) (*cnf.Formula, bool) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	f, err := cnf.Parse(body)
	if err == nil {
		return f, true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteErrorResponse(w, r, http.StatusRequestEntityTooLarge, "Formula too large", err)
	default:
		h.logger.Warn().
			Str("request_id", RequestID(r.Context())).
			Err(err).
			Msg("Invalid formula")
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid DIMACS formula", err)
	}
	return nil, false
}

func instanceName(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return defaultInstance
}

// ComputeFeatures computes one feature, or all of them, of the uploaded formula
func (h *Handlers) ComputeFeatures(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("feature")
	if name == "" {
		name = "all"
	}

	var feature features.Feature
	if name != "all" {
		var err error
		if feature, err = features.ParseFeature(name); err != nil {
			WriteErrorResponse(w, r, http.StatusBadRequest, "Unknown feature", err)
			return
		}
	}

	f, ok := h.readFormula(w, r)
	if !ok {
		return
	}

	var (
		data interface{}
		err  error
	)
	if feature == "" {
		data, err = h.service.ComputeAll(r.Context(), instanceName(r), f)
	} else {
		data, err = h.compute(r.Context(), feature, f)
	}
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	WriteSuccessResponse(w, r, "Features computed successfully", data)
}

func (h *Handlers) compute(ctx context.Context, feature features.Feature, f *cnf.Formula) (interface{}, error) {
	switch feature {
	case features.ModularityVIG:
		return h.service.ModularityVIG(ctx, f)
	case features.ModularityCVIG:
		return h.service.ModularityCVIG(ctx, f)
	case features.ScaleFreeVar:
		return h.service.ScaleFreeVar(f)
	case features.ScaleFreeClause:
		return h.service.ScaleFreeClause(f)
	case features.SelfSimilarVIG:
		return h.service.SelfSimilarVIG(ctx, f)
	default:
		return h.service.SelfSimilarCVIG(ctx, f)
	}
}

func (h *Handlers) writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, powerlaw.ErrInsufficientData), errors.Is(err, dimension.ErrTooFewPoints):
		WriteErrorResponse(w, r, http.StatusUnprocessableEntity, "Feature unavailable for this formula", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteErrorResponse(w, r, http.StatusServiceUnavailable, "Computation cancelled", err)
	default:
		h.logger.Error().
			Str("request_id", RequestID(r.Context())).
			Err(err).
			Msg("Feature computation failed")
		WriteErrorResponse(w, r, http.StatusInternalServerError, "Feature computation failed", err)
	}
}

// ComputeCommunities returns the community ranking of one graph of the
// uploaded formula
func (h *Handlers) ComputeCommunities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind := features.VIG
	if g := query.Get("graph"); g != "" {
		var err error
		if kind, err = features.ParseGraphKind(g); err != nil {
			WriteErrorResponse(w, r, http.StatusBadRequest, "Unknown graph", err)
			return
		}
	}

	method := query.Get("method")
	if method != "" && method != "louvain" && method != "components" {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Unknown method, want louvain or components", nil)
		return
	}

	f, ok := h.readFormula(w, r)
	if !ok {
		return
	}

	var (
		report *features.CommunityReport
		err    error
	)
	if method == "components" {
		report, err = h.service.Components(f, kind)
	} else {
		report, err = h.service.Modularity(r.Context(), f, kind)
	}
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	WriteSuccessResponse(w, r, "Communities computed successfully", report)
}

// ListFeatures lists the feature names ComputeFeatures accepts
func (h *Handlers) ListFeatures(w http.ResponseWriter, r *http.Request) {
	names := []string{"all"}
	for _, f := range features.AllFeatures {
		names = append(names, string(f))
	}
	WriteSuccessResponse(w, r, "Features retrieved successfully", names)
}

// SubmitJob queues a computation of every feature of the uploaded formula
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFormula(w, r)
	if !ok {
		return
	}

	job := h.jobs.Submit(instanceName(r), f)
	writeStatusResponse(w, r, http.StatusAccepted, "Job submitted", job)
}

// GetJob reports the state of a job
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(mux.Vars(r)["jobId"])
	if err != nil {
		WriteErrorResponse(w, r, http.StatusNotFound, "Job not found", err)
		return
	}
	WriteSuccessResponse(w, r, "Job retrieved successfully", job)
}

// CancelJob cancels a queued or running job
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Cancel(mux.Vars(r)["jobId"])
	if err != nil {
		WriteErrorResponse(w, r, http.StatusNotFound, "Job not found", err)
		return
	}
	WriteSuccessResponse(w, r, "Job cancelled", job)
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, r, "Service is healthy", map[string]interface{}{
		"status":  "healthy",
		"service": "satfeat",
	})
}
