package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/salon-scheduler/internal/application"
)

type timeBlockService interface {
	ListTimeBlocks(ctx context.Context, principal application.Principal, date string) ([]application.TimeBlock, error)
	DayGrid(ctx context.Context, principal application.Principal, date string) (application.DayGrid, error)
	CreateTimeBlock(ctx context.Context, params application.CreateTimeBlockParams) (application.TimeBlock, error)
	UpdateTimeBlock(ctx context.Context, params application.UpdateTimeBlockParams) (application.TimeBlock, error)
	MoveTimeBlock(ctx context.Context, params application.MoveTimeBlockParams) (application.TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, principal application.Principal, id string) error
}

// TimeBlockHandler serves the appointment endpoints and the day grid.
type TimeBlockHandler struct {
	service   timeBlockService
	responder responder
	logger    *slog.Logger
}

func NewTimeBlockHandler(service timeBlockService, metrics *Metrics, logger *slog.Logger) *TimeBlockHandler {
	base := orDefault(logger)
	return &TimeBlockHandler{service: service, responder: newResponder(base).withMetrics(metrics), logger: base}
}

func (h *TimeBlockHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return scopedLogger(ctx, h.logger, "TimeBlockHandler", operation, attrs...)
}

// List returns the blocks of ?date=YYYY-MM-DD.
func (h *TimeBlockHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	blocks, err := h.service.ListTimeBlocks(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeBlockDTOs(blocks))
}

func (h *TimeBlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req createTimeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode time block request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	block, err := h.service.CreateTimeBlock(r.Context(), application.CreateTimeBlockParams{
		Principal: principal,
		Input: application.TimeBlockInput{
			EmployeeID: req.EmployeeID,
			Date:       req.Date,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			Task:       req.Task,
			ClientName: req.ClientName,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTimeBlockDTO(block))
}

// Update applies a partial change; a null task or clientName clears it.
func (h *TimeBlockHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := mux.Vars(r)["id"]
	var req updateTimeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "block_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode time block update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	block, err := h.service.UpdateTimeBlock(r.Context(), application.UpdateTimeBlockParams{
		Principal: principal,
		BlockID:   id,
		Patch: application.TimeBlockPatch{
			EmployeeID: req.EmployeeID.present(),
			StartTime:  req.StartTime.present(),
			EndTime:    req.EndTime.present(),
			Task:       req.Task.clearable(),
			ClientName: req.ClientName.clearable(),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeBlockDTO(block))
}

// Move is the drag and drop endpoint; the block keeps its duration.
func (h *TimeBlockHandler) Move(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := mux.Vars(r)["id"]
	var req moveTimeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Move", "block_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode move request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	block, err := h.service.MoveTimeBlock(r.Context(), application.MoveTimeBlockParams{
		Principal:  principal,
		BlockID:    id,
		EmployeeID: req.EmployeeID,
		StartTime:  req.StartTime,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeBlockDTO(block))
}

func (h *TimeBlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteTimeBlock(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

// Schedule returns the day grid for ?date=YYYY-MM-DD.
func (h *TimeBlockHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	grid, err := h.service.DayGrid(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(grid))
}

type createTimeBlockRequest struct {
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	Task       *string `json:"task"`
	ClientName *string `json:"clientName"`
}

type updateTimeBlockRequest struct {
	EmployeeID optionalString `json:"employeeId"`
	StartTime  optionalString `json:"startTime"`
	EndTime    optionalString `json:"endTime"`
	Task       optionalString `json:"task"`
	ClientName optionalString `json:"clientName"`
}

type moveTimeBlockRequest struct {
	EmployeeID string `json:"employeeId"`
	StartTime  string `json:"startTime"`
}

type scheduleDTO struct {
	Date    string              `json:"date"`
	Slots   []string            `json:"slots"`
	Columns []scheduleColumnDTO `json:"columns"`
	Blocks  []timeBlockDTO      `json:"blocks"`
}

type scheduleColumnDTO struct {
	Employee employeeDTO `json:"employee"`
	Cells    []cellDTO   `json:"cells"`
}

type cellDTO struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
	BlockID  string `json:"blockId,omitempty"`
	Span     int    `json:"span,omitempty"`
}

func toScheduleDTO(g application.DayGrid) scheduleDTO {
	out := scheduleDTO{
		Date:    g.Date,
		Slots:   g.Slots,
		Columns: make([]scheduleColumnDTO, 0, len(g.Columns)),
		Blocks:  toTimeBlockDTOs(g.Blocks),
	}
	for _, col := range g.Columns {
		c := scheduleColumnDTO{Employee: toEmployeeDTO(col.Employee), Cells: make([]cellDTO, 0, len(col.Cells))}
		for _, cell := range col.Cells {
			c.Cells = append(c.Cells, cellDTO{Time: cell.Time, Occupied: cell.Occupied, BlockID: cell.BlockID, Span: cell.Span})
		}
		out.Columns = append(out.Columns, c)
	}
	return out
}
