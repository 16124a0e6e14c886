package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-flood-risk/internal/calibration"
	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
)

// Request limits.
const (
	MaxRainfallAmount = 50.0
	MaxDurationHours  = 168.0
	MaxNumPoints      = 2500
	MaxScenarios      = 50
	MaxSequenceSteps  = 50
	maxBodyBytes      = 1 << 20
)

// Assessor runs a production assessment.
type Assessor interface {
	Assess(ctx context.Context, req pipeline.Request) (pipeline.Assessment, error)
}

// Calibrator replays historical storms and stability sequences.
type Calibrator interface {
	Run(ctx context.Context, scenarios []calibration.Scenario) calibration.Report
	StabilityCheck(ctx context.Context, sequence []domain.RainfallScenario) (calibration.StabilityReport, error)
}

// Defaults fills request fields the client left out.
type Defaults struct {
	NumPoints     int
	MinDistanceKm float64
	Timeout       time.Duration
}

// API serves the assessment and calibration routes.
type API struct {
	assessor   Assessor
	calibrator Calibrator
	defaults   Defaults
	logger     *slog.Logger
}

// NewAPI creates the route handlers.
func NewAPI(assessor Assessor, calibrator Calibrator, defaults Defaults, logger *slog.Logger) *API {
	return &API{assessor: assessor, calibrator: calibrator, defaults: defaults, logger: logger}
}

type assessRequest struct {
	RainfallAmount float64  `json:"rainfall_amount"`
	DurationHours  float64  `json:"duration_hours"`
	NumPoints      int      `json:"num_points"`
	MinDistanceKm  *float64 `json:"min_distance_km"`
}

func (a *API) handleAssess(w http.ResponseWriter, r *http.Request) {
	var body assessRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := a.toRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := a.withTimeout(r.Context())
	defer cancel()

	assessment, err := a.assessor.Assess(ctx, req)
	switch {
	case errors.Is(err, pipeline.ErrNoElevationData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "assessment timed out")
		return
	case err != nil:
		a.logger.Error("assessment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "assessment failed")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, assessment)
}

// checkStorm applies the request range limits to one storm.
func checkStorm(rainfall, duration float64) error {
	if rainfall <= 0 || rainfall > MaxRainfallAmount {
		return fmt.Errorf("rainfall_amount must be in (0, %g]", MaxRainfallAmount)
	}
	if duration <= 0 || duration > MaxDurationHours {
		return fmt.Errorf("duration_hours must be in (0, %g]", MaxDurationHours)
	}
	return nil
}

// toRequest range-checks the storm and applies defaults.
func (a *API) toRequest(body assessRequest) (pipeline.Request, error) {
	if err := checkStorm(body.RainfallAmount, body.DurationHours); err != nil {
		return pipeline.Request{}, err
	}

	req := pipeline.Request{
		RainfallAmount: body.RainfallAmount,
		DurationHours:  body.DurationHours,
		NumPoints:      body.NumPoints,
		MinDistanceKm:  a.defaults.MinDistanceKm,
	}
	if req.NumPoints == 0 {
		req.NumPoints = a.defaults.NumPoints
	}
	if req.NumPoints < 1 || req.NumPoints > MaxNumPoints {
		return pipeline.Request{}, fmt.Errorf("num_points must be in [1, %d]", MaxNumPoints)
	}
	if body.MinDistanceKm != nil {
		if *body.MinDistanceKm < 0 {
			return pipeline.Request{}, errors.New("min_distance_km must be non-negative")
		}
		req.MinDistanceKm = *body.MinDistanceKm
	}
	return req, nil
}

func (a *API) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"scenarios": calibration.DefaultCatalog()})
}

type calibrateRequest struct {
	Scenarios []calibration.Scenario `json:"scenarios"`
}

func (a *API) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var body calibrateRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scenarios := body.Scenarios
	if len(scenarios) == 0 {
		scenarios = calibration.DefaultCatalog()
	}
	if len(scenarios) > MaxScenarios {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d scenarios per run", MaxScenarios))
		return
	}
	for i, s := range scenarios {
		if s.Name == "" {
			writeError(w, http.StatusBadRequest, "every scenario needs a name")
			return
		}
		if err := checkStorm(s.RainfallAmount, s.DurationHours); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("scenario %d (%s): %v", i, s.Name, err))
			return
		}
	}

	ctx, cancel := a.withTimeout(r.Context())
	defer cancel()

	sharedobs.WriteJSON(w, http.StatusOK, a.calibrator.Run(ctx, scenarios))
}

type stabilityRequest struct {
	Sequence []domain.RainfallScenario `json:"sequence"`
}

func (a *API) handleStability(w http.ResponseWriter, r *http.Request) {
	var body stabilityRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sequence := body.Sequence
	if len(sequence) == 0 {
		sequence = calibration.DefaultStabilitySequence()
	}
	if len(sequence) > MaxSequenceSteps {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d steps per sequence", MaxSequenceSteps))
		return
	}
	for i, step := range sequence {
		if err := checkStorm(step.RainfallAmount, step.DurationHours); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("step %d: %v", i, err))
			return
		}
	}

	ctx, cancel := a.withTimeout(r.Context())
	defer cancel()

	report, err := a.calibrator.StabilityCheck(ctx, sequence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (a *API) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.defaults.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.defaults.Timeout)
}

// decodeBody reads an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
