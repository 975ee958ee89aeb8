/*
handlers.go - HTTP API handlers for the bonus workflow

PURPOSE:
  Exposes bonus sessions via REST API. Handles HTTP request/response, JSON
  serialization and file uploads, and delegates to the session state
  machine.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                    Create session
    GET    /api/sessions                    List sessions
    GET    /api/sessions/{id}               Session summary
    DELETE /api/sessions/{id}               Drop session

  Workflow (all under /api/sessions/{id}):
    POST   /inputs     multipart: requesters, roster (.xlsx or .csv)
    GET    /workers    joined rows, ?status=FOUND|NOT_FOUND
    PUT    /config     process type and lots
    POST   /edit       open the participation grid
    PUT    /entries    set typed cells
    POST   /compute    commit and compute payouts
    GET    /payouts    computed table
    GET    /export     payout workbook download
    POST   /plan       apply a YAML/JSON plan in one step

  Reference:
    GET    /api/roles                       Role share table, ?process=
    GET    /api/scenarios                   Demo scenarios
    POST   /api/scenarios/load              Load a demo into a new session

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing columns, bad lots, bad cells, bad plans, bad uploads
  - 404: Unknown session
  - 409: Action not allowed in the session's state
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/config"
	"github.com/warp/bono-engine/factory"
	"github.com/warp/bono-engine/roster"
	"github.com/warp/bono-engine/session"
	"github.com/warp/bono-engine/sheet"
	"go.uber.org/zap"
)

const (
	maxUploadBytes = 32 << 20
	maxBodyBytes   = 4 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrNoTable is returned when payouts are requested before compute.
var ErrNoTable = errors.New("payouts not computed")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  session.Store
	Config *config.AppConfig
	Log    *zap.Logger
}

// NewHandler creates a handler. A nil logger discards logs.
func NewHandler(store session.Store, cfg *config.AppConfig, log *zap.Logger) *Handler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Config: cfg, Log: log}
}

// session loads the {id} session or writes the error reply.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := session.ID(chi.URLParam(r, "id"))
	s, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Session not found", err)
		return nil, false
	}
	return s, true
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateSession starts an empty session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Create(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to create session", err)
		return
	}
	h.logger(r).Info("session created", zap.String("session", string(s.ID())))
	writeJSON(w, http.StatusCreated, toSessionDTO(s.Summary()))
}

// ListSessions returns every live session, oldest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list sessions", err)
		return
	}
	dtos := make([]SessionDTO, len(all))
	for i, s := range all {
		dtos[i] = toSessionDTO(s.Summary())
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSession returns one session summary.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s.Summary()))
}

// DeleteSession drops a session and everything typed into it.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := session.ID(chi.URLParam(r, "id"))
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete session", err)
		return
	}
	h.logger(r).Info("session deleted", zap.String("session", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INPUTS
// =============================================================================

// UploadInputs reads the requester list and master roster and joins them.
func (h *Handler) UploadInputs(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart upload", err)
		return
	}
	requesters, err := readUpload(r, "requesters")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid requesters file", err)
		return
	}
	master, err := readUpload(r, "roster")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid roster file", err)
		return
	}

	res, err := s.LoadInputs(requesters, master)
	if err != nil {
		h.fail(w, r, "Failed to load inputs", err)
		return
	}

	h.logger(r).Info("inputs loaded",
		zap.String("session", string(s.ID())),
		zap.Int("requesters", res.Stats.Requesters),
		zap.Int("found", res.Stats.Found),
		zap.Int("not_found", res.Stats.NotFound),
		zap.Int("roster_duplicates", res.Stats.RosterDuplicates),
	)
	writeJSON(w, http.StatusOK, InputsResponse{Session: toSessionDTO(s.Summary()), Stats: res.Stats})
}

func readUpload(r *http.Request, field string) (roster.Table, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return roster.Table{}, fmt.Errorf("field %q: %w", field, err)
	}
	defer f.Close()
	return sheet.ReadTable(hdr.Filename, f)
}

// ListWorkers returns the joined rows with their current entries.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var filter roster.MatchStatus
	switch status := strings.ToUpper(r.URL.Query().Get("status")); status {
	case "":
	case string(roster.StatusFound), string(roster.StatusNotFound):
		filter = roster.MatchStatus(status)
	default:
		writeError(w, http.StatusBadRequest, "Invalid status filter", fmt.Errorf("status %q (want FOUND or NOT_FOUND)", status))
		return
	}

	lots := s.Summary().Lots
	workers := s.Workers()
	dtos := make([]WorkerDTO, 0, len(workers))
	for i, wk := range workers {
		if filter != "" && wk.Status != filter {
			continue
		}
		dto := WorkerDTO{
			Row:    i,
			Line:   wk.Line,
			RawDNI: wk.RawID,
			DNI:    string(wk.ID),
			Name:   wk.Name,
			Role:   wk.Role,
			Status: string(wk.Status),
		}
		for _, l := range lots {
			e := s.Entry(i, l.ID)
			dto.Entries = append(dto.Entries, EntryDTO{
				Lot:           string(l.ID),
				Participation: e.Participation.String(),
				Absences:      e.Absences,
			})
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CONFIGURATION AND EDITING
// =============================================================================

// Configure sets the process type and lots.
func (h *Handler) Configure(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ConfigureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lots, err := h.lotsFrom(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lots", err)
		return
	}
	process := bonus.ProcessType(req.Process)
	if req.Process == "" {
		process = h.Config.DefaultProcess()
	}

	if err := s.Configure(process, lots); err != nil {
		h.fail(w, r, "Failed to configure session", err)
		return
	}
	h.logger(r).Info("session configured",
		zap.String("session", string(s.ID())),
		zap.String("process", string(process)),
		zap.Int("lots", len(lots)),
	)
	writeJSON(w, http.StatusOK, toSessionDTO(s.Summary()))
}

// lotsFrom builds lots from the explicit list, the lots text, or the
// configured defaults, in that order.
func (h *Handler) lotsFrom(req ConfigureRequest) ([]bonus.Lot, error) {
	if len(req.Lots) > 0 {
		lots := make([]bonus.Lot, len(req.Lots))
		for i, l := range req.Lots {
			budget, err := parseBudget(l.Budget)
			if err != nil {
				return nil, fmt.Errorf("lot %q: %w", l.ID, err)
			}
			genetics := l.Genetics
			if strings.TrimSpace(genetics) == "" {
				genetics = bonus.DefaultGenetics
			}
			lots[i] = bonus.NewLot(l.ID, genetics, budget)
		}
		return lots, nil
	}

	if strings.TrimSpace(req.LotsText) == "" {
		return h.Config.DefaultLots()
	}
	ids, err := bonus.ParseLotIDs(req.LotsText)
	if err != nil {
		return nil, err
	}
	budget, err := parseBudget(req.Budget)
	if err != nil {
		return nil, err
	}
	genetics := req.Genetics
	if strings.TrimSpace(genetics) == "" {
		genetics = bonus.DefaultGenetics
	}
	lots := make([]bonus.Lot, len(ids))
	for i, id := range ids {
		lots[i] = bonus.NewLot(string(id), genetics, budget)
	}
	return lots, nil
}

func parseBudget(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return bonus.DefaultBudget, nil
	}
	b, bad := bonus.ParseDecimalOr(raw, decimal.Zero)
	if bad {
		return decimal.Zero, fmt.Errorf("budget %q is not a number", raw)
	}
	return b, nil
}

// OpenEditing moves the session to EDITABLE.
func (h *Handler) OpenEditing(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.OpenEditing(); err != nil {
		h.fail(w, r, "Failed to open editing", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s.Summary()))
}

// SetEntries applies typed cells. Nothing is applied if any cell is unknown.
func (h *Handler) SetEntries(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	updates := make([]session.EntryUpdate, len(req.Entries))
	for i, e := range req.Entries {
		updates[i] = session.EntryUpdate{
			Row:           e.Row,
			Lot:           bonus.LotID(strings.TrimSpace(e.Lot)),
			Participation: e.Participation,
			Absences:      e.Absences,
		}
	}

	res, err := s.SetEntries(updates)
	if err != nil {
		h.fail(w, r, "Failed to set entries", err)
		return
	}
	if res.DegradedParticipation+res.DegradedAbsences > 0 {
		h.logger(r).Warn("unparseable cells stored with defaults",
			zap.String("session", string(s.ID())),
			zap.Int("participation", res.DegradedParticipation),
			zap.Int("absences", res.DegradedAbsences),
		)
	}
	writeJSON(w, http.StatusOK, SetEntriesResponse{
		Applied:               res.Applied,
		DegradedParticipation: res.DegradedParticipation,
		DegradedAbsences:      res.DegradedAbsences,
	})
}

// =============================================================================
// PAYOUTS
// =============================================================================

// Compute commits the grid and returns the payout table.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	t, err := s.Commit()
	if err != nil {
		h.fail(w, r, "Failed to compute payouts", err)
		return
	}
	h.logger(r).Info("payouts computed",
		zap.String("session", string(s.ID())),
		zap.String("grand_total", t.GrandTotal.StringFixed(2)),
		zap.Int("unknown_roles", t.Report.UnknownRoles),
		zap.Int("clamped_cells", t.Report.ClampedCells),
	)
	writeJSON(w, http.StatusOK, toPayoutTableDTO(t))
}

// GetPayouts returns the last computed table.
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	t := s.Table()
	if t == nil {
		writeError(w, http.StatusConflict, "No payouts yet", ErrNoTable)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutTableDTO(t))
}

// Export streams the payout workbook and marks the session EXPORTED.
// The state only changes if the workbook was built.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := s.WithTx(func(tx *session.Tx) error {
		t, err := tx.MarkExported()
		if err != nil {
			return err
		}
		return sheet.WritePayouts(&buf, t, tx.Stats())
	})
	if err != nil {
		h.fail(w, r, "Failed to export payouts", err)
		return
	}

	name := h.Config.ExportFileName()
	h.logger(r).Info("payouts exported",
		zap.String("session", string(s.ID())),
		zap.String("file", name),
		zap.Int("bytes", buf.Len()),
	)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ApplyPlan runs a YAML or JSON plan document against the session.
func (h *Handler) ApplyPlan(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read plan", err)
		return
	}
	p, err := factory.ParsePlan(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}
	res, err := p.Apply(s)
	if err != nil {
		h.fail(w, r, "Failed to apply plan", err)
		return
	}

	unmatched := make([]string, len(res.UnmatchedDNIs))
	for i, id := range res.UnmatchedDNIs {
		unmatched[i] = string(id)
	}
	h.logger(r).Info("plan applied",
		zap.String("session", string(s.ID())),
		zap.Int("applied", res.Entries.Applied),
		zap.Strings("unmatched", unmatched),
	)
	writeJSON(w, http.StatusOK, PlanResponse{
		Applied:       res.Entries.Applied,
		UnmatchedDNIs: unmatched,
		Table:         toPayoutTableDTO(res.Table),
	})
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// ListRoles returns the role share table for ?process= (default PRODUCCION).
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	process, err := bonus.ParseProcessType(r.URL.Query().Get("process"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid process", err)
		return
	}
	roles := bonus.RolesFor(process)
	names := roles.Roles()
	dtos := make([]RoleDTO, len(names))
	for i, name := range names {
		share, _ := roles.Share(name)
		dtos[i] = RoleDTO{Role: name, Share: share.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// fail maps a domain error to its status and writes it. 500s are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger(r).Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, roster.ErrMissingColumn),
		errors.Is(err, session.ErrUnknownCell),
		errors.Is(err, factory.ErrInvalidPlan),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, sheet.ErrEmptyFile),
		bonus.IsConfigError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// logger returns the handler logger tagged with the request ID.
func (h *Handler) logger(r *http.Request) *zap.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return h.Log.With(zap.String("request_id", id))
	}
	return h.Log
}
