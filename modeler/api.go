package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/platform/auditlog"
	"github.com/loftcad-labs/loftcad-go/internal/platform/auth"
	"github.com/loftcad-labs/loftcad-go/internal/platform/objectstore"
	"github.com/loftcad-labs/loftcad-go/internal/repo"
	"github.com/loftcad-labs/loftcad-go/internal/service/runs"
	"github.com/loftcad-labs/loftcad-go/internal/shapes"
)

type modelerAPI struct {
	logger   *slog.Logger
	db       *sql.DB
	svc      *runs.Service
	store    *minio.Client
	storeCfg objectstore.Config
}

func newModelerAPI(logger *slog.Logger, db *sql.DB, svc *runs.Service, store *minio.Client, storeCfg objectstore.Config) *modelerAPI {
	return &modelerAPI{
		logger:   logger,
		db:       db,
		svc:      svc,
		store:    store,
		storeCfg: storeCfg,
	}
}

func (api *modelerAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/shapes/cylinder", api.handleBuildCylinder)
	mux.HandleFunc("POST /v1/shapes/cup", api.handleBuildCup)
	mux.HandleFunc("POST /v1/shapes/lamp", api.handleBuildLamp)

	mux.HandleFunc("GET /v1/runs", api.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{run_id}", api.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{run_id}/steps", api.handleListRunSteps)
	mux.HandleFunc("GET /v1/runs/{run_id}/transcript", api.handleGetRunTranscript)
}

type planeSelectionRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type selectionRequest struct {
	DocumentID   string                 `json:"document_id,omitempty"`
	DocumentName string                 `json:"document_name,omitempty"`
	WorkspaceID  string                 `json:"workspace_id,omitempty"`
	ElementID    string                 `json:"element_id,omitempty"`
	Plane        *planeSelectionRequest `json:"plane,omitempty"`
}

func (s selectionRequest) snapshot() domain.SelectionSnapshot {
	snap := domain.SelectionSnapshot{
		DocumentName: strings.TrimSpace(s.DocumentName),
		WorkspaceID:  strings.TrimSpace(s.WorkspaceID),
	}
	if id := strings.TrimSpace(s.DocumentID); id != "" {
		snap.Document = &domain.DocumentRef{ID: id, Name: snap.DocumentName}
	}
	if id := strings.TrimSpace(s.ElementID); id != "" {
		snap.Element = &domain.ElementRef{ID: id, DocumentID: strings.TrimSpace(s.DocumentID)}
	}
	if s.Plane != nil {
		snap.Plane = &domain.PlaneSelection{
			ID:   strings.TrimSpace(s.Plane.ID),
			Name: strings.TrimSpace(s.Plane.Name),
		}
	}
	return snap
}

type runResponse struct {
	RunID          string     `json:"run_id"`
	Shape          string     `json:"shape"`
	DocumentID     string     `json:"document_id"`
	WorkspaceID    string     `json:"workspace_id"`
	ElementID      string     `json:"element_id"`
	PlaneKind      string     `json:"plane_kind"`
	PlaneID        string     `json:"plane_id"`
	Status         string     `json:"status"`
	FinalFeatureID string     `json:"final_feature_id,omitempty"`
	FailedStep     string     `json:"failed_step,omitempty"`
	Error          string     `json:"error,omitempty"`
	TranscriptKey  string     `json:"transcript_key,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatedBy      string     `json:"created_by"`
}

func toRunResponse(run domain.Run) runResponse {
	return runResponse{
		RunID:          run.ID,
		Shape:          run.Shape,
		DocumentID:     run.DocumentID,
		WorkspaceID:    run.WorkspaceID,
		ElementID:      run.ElementID,
		PlaneKind:      string(run.PlaneKind),
		PlaneID:        run.PlaneID,
		Status:         string(run.Status),
		FinalFeatureID: run.FinalFeatureID,
		FailedStep:     run.FailedStep,
		Error:          run.Error,
		TranscriptKey:  run.TranscriptKey,
		StartedAt:      run.StartedAt,
		EndedAt:        run.EndedAt,
		CreatedBy:      run.CreatedBy,
	}
}

type buildCylinderRequest struct {
	Selection selectionRequest `json:"selection"`
	Radius    float64          `json:"radius"`
	Height    float64          `json:"height"`
}

func (api *modelerAPI) handleBuildCylinder(w http.ResponseWriter, r *http.Request) {
	var req buildCylinderRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	api.build(w, r, "cylinder", func(actor string) (domain.Run, error) {
		return api.svc.BuildCylinder(r.Context(), actor, req.Selection.snapshot(), shapes.CylinderParams{
			Radius: req.Radius,
			Height: req.Height,
		})
	})
}

type buildCupRequest struct {
	Selection     selectionRequest `json:"selection"`
	Radius        float64          `json:"radius"`
	Height        float64          `json:"height"`
	WallThickness float64          `json:"wall_thickness"`
}

func (api *modelerAPI) handleBuildCup(w http.ResponseWriter, r *http.Request) {
	var req buildCupRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	api.build(w, r, "cup", func(actor string) (domain.Run, error) {
		return api.svc.BuildCup(r.Context(), actor, req.Selection.snapshot(), shapes.CupParams{
			Radius:        req.Radius,
			Height:        req.Height,
			WallThickness: req.WallThickness,
		})
	})
}

type buildLampRequest struct {
	Selection   selectionRequest `json:"selection"`
	BaseRadius  float64          `json:"base_radius"`
	BaseHeight  float64          `json:"base_height"`
	StemRadius  float64          `json:"stem_radius"`
	StemHeight  float64          `json:"stem_height"`
	ShadeRadius float64          `json:"shade_radius"`
	ShadeAngle  float64          `json:"shade_angle"`
}

func (api *modelerAPI) handleBuildLamp(w http.ResponseWriter, r *http.Request) {
	var req buildLampRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	api.build(w, r, "lamp", func(actor string) (domain.Run, error) {
		return api.svc.BuildLamp(r.Context(), actor, req.Selection.snapshot(), shapes.LampParams{
			BaseRadius:  req.BaseRadius,
			BaseHeight:  req.BaseHeight,
			StemRadius:  req.StemRadius,
			StemHeight:  req.StemHeight,
			ShadeRadius: req.ShadeRadius,
			ShadeAngle:  req.ShadeAngle,
		})
	})
}

func (api *modelerAPI) build(w http.ResponseWriter, r *http.Request, shape string, invoke func(actor string) (domain.Run, error)) {
	identity, ok := auth.IdentityFromContext(r.Context())
	actor := "anonymous"
	if ok && strings.TrimSpace(identity.Subject) != "" {
		actor = identity.Subject
	}

	run, err := invoke(actor)
	if err != nil && run.ID == "" {
		// Failed before a run record existed: resolution or validation.
		status, code := classifyBuildError(err)
		api.logger.Warn("build rejected", "shape", shape, "error", err)
		api.writeError(w, r, status, code)
		return
	}

	api.audit(r, actor, shape, run)

	if err != nil {
		status, code := classifyBuildError(err)
		api.writeJSON(w, status, map[string]any{
			"error":      code,
			"request_id": r.Header.Get("X-Request-Id"),
			"run":        toRunResponse(run),
		})
		return
	}
	api.writeJSON(w, http.StatusCreated, toRunResponse(run))
}

func (api *modelerAPI) audit(r *http.Request, actor, shape string, run domain.Run) {
	_, err := auditlog.Insert(r.Context(), api.db, auditlog.Event{
		OccurredAt:   time.Now().UTC(),
		Actor:        actor,
		Action:       "shape.build",
		ResourceType: "pipeline_run",
		ResourceID:   run.ID,
		RequestID:    r.Header.Get("X-Request-Id"),
		Payload: map[string]any{
			"shape":            shape,
			"status":           string(run.Status),
			"final_feature_id": run.FinalFeatureID,
			"failed_step":      run.FailedStep,
		},
	})
	if err != nil {
		api.logger.Error("audit insert failed", "run_id", run.ID, "error", err)
	}
}

// classifyBuildError maps the domain error taxonomy to HTTP statuses. Remote
// service trouble is the gateway's fault, not the caller's.
func classifyBuildError(err error) (int, string) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "invalid_parameters"
	}
	var resolutionErr *domain.ResolutionError
	if errors.As(err, &resolutionErr) {
		return http.StatusUnprocessableEntity, "resolution_failed"
	}
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return http.StatusBadGateway, "cad_authentication_failed"
	}
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway, "cad_unreachable"
	}
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return http.StatusBadGateway, "cad_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (api *modelerAPI) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		Shape:      strings.TrimSpace(r.URL.Query().Get("shape")),
		DocumentID: strings.TrimSpace(r.URL.Query().Get("document_id")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		state := domain.NormalizeRunState(raw)
		if state == "" {
			api.writeError(w, r, http.StatusBadRequest, "invalid_status")
			return
		}
		filter.Status = string(state)
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			api.writeError(w, r, http.StatusBadRequest, "invalid_limit")
			return
		}
		filter.Limit = limit
	}

	found, err := api.svc.ListRuns(r.Context(), filter)
	if err != nil {
		api.logger.Error("list runs failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	items := make([]runResponse, 0, len(found))
	for _, run := range found {
		items = append(items, toRunResponse(run))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"runs": items})
}

func (api *modelerAPI) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := api.lookupRun(w, r)
	if !ok {
		return
	}
	api.writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (api *modelerAPI) handleListRunSteps(w http.ResponseWriter, r *http.Request) {
	run, ok := api.lookupRun(w, r)
	if !ok {
		return
	}
	steps, err := api.svc.ListSteps(r.Context(), run.ID)
	if err != nil {
		api.logger.Error("list steps failed", "run_id", run.ID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	type stepResponse struct {
		Index     int    `json:"index"`
		Name      string `json:"name"`
		FeatureID string `json:"feature_id,omitempty"`
	}
	items := make([]stepResponse, 0, len(steps))
	for _, step := range steps {
		items = append(items, stepResponse{Index: step.Index, Name: step.Name, FeatureID: step.FeatureID})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"run_id": run.ID, "steps": items})
}

func (api *modelerAPI) handleGetRunTranscript(w http.ResponseWriter, r *http.Request) {
	run, ok := api.lookupRun(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(run.TranscriptKey) == "" {
		api.writeError(w, r, http.StatusNotFound, "transcript_not_found")
		return
	}

	obj, err := api.store.GetObject(r.Context(), api.storeCfg.BucketTranscripts, run.TranscriptKey, minio.GetObjectOptions{})
	if err != nil {
		api.logger.Error("transcript fetch failed", "run_id", run.ID, "error", err)
		api.writeError(w, r, http.StatusBadGateway, "object_store_error")
		return
	}
	defer func() { _ = obj.Close() }()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		api.logger.Warn("transcript stream interrupted", "run_id", run.ID, "error", err)
	}
}

func (api *modelerAPI) lookupRun(w http.ResponseWriter, r *http.Request) (domain.Run, bool) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		api.writeError(w, r, http.StatusBadRequest, "run_id_required")
		return domain.Run{}, false
	}
	run, err := api.svc.GetRun(r.Context(), runID)
	if errors.Is(err, repo.ErrNotFound) {
		api.writeError(w, r, http.StatusNotFound, "run_not_found")
		return domain.Run{}, false
	}
	if err != nil {
		api.logger.Error("get run failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return domain.Run{}, false
	}
	return run, true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *modelerAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *modelerAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}
