package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/warehousekit/bindivider/internal/derive"
	"github.com/warehousekit/bindivider/internal/export"
	"github.com/warehousekit/bindivider/internal/report"
	"github.com/warehousekit/bindivider/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const exportFilename = "Bin_Divider_Specs.xlsx"

// Handler wires the bin library, group list, and derivation engine into HTTP
// handlers. It is the driver surface the interactive UI talks to.
type Handler struct {
	library     storage.BinLibrary
	groups      storage.GroupList
	engine      derive.Engine
	maxColWidth float64

	clock func() time.Time

	mu               sync.RWMutex
	libraryUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMaxColumnWidth overrides the export column width cap.
func WithMaxColumnWidth(width float64) HandlerOption {
	return func(h *Handler) {
		h.maxColWidth = width
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(library storage.BinLibrary, groups storage.GroupList, engine derive.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		library:     library,
		groups:      groups,
		engine:      engine,
		maxColWidth: export.DefaultMaxColumnWidth,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.libraryUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Bin library ─────────────────────────────────────────────────────────────

func (h *Handler) handleListBins(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := binListResponse{
		Bins:      binResponses(h.library.List()),
		UpdatedAt: h.currentLibraryUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAddBin(w http.ResponseWriter, r *http.Request) {
	_ = r
	bin := h.library.Add()
	h.markLibraryUpdated()
	writeJSON(w, http.StatusCreated, toBinResponse(bin))
}

func (h *Handler) handleUpdateBin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown bin", "bin id must be an integer")
		return
	}

	var req binRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	bin, err := h.library.Update(id, req.fields())
	if err != nil {
		if errors.Is(err, storage.ErrBinNotFound) {
			writeError(w, http.StatusNotFound, "Unknown bin", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markLibraryUpdated()
	writeJSON(w, http.StatusOK, toBinResponse(bin))
}

func (h *Handler) handleDeleteBin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown bin", "bin id must be an integer")
		return
	}

	if err := h.library.Remove(id); err != nil {
		if errors.Is(err, storage.ErrBinNotFound) {
			writeError(w, http.StatusNotFound, "Unknown bin", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	// Referential integrity: a deleted bin must vanish from every group's
	// selection immediately, not at export time.
	h.groups.SyncWithLibrary(h.library.IDs())
	h.markLibraryUpdated()
	w.WriteHeader(http.StatusNoContent)
}

// ── Group list ──────────────────────────────────────────────────────────────

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, groupListResponse{Groups: groupResponses(h.groups.List())})
}

func (h *Handler) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	_ = r
	group, index := h.groups.Add()
	writeJSON(w, http.StatusCreated, toGroupResponse(index, group))
}

func (h *Handler) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	group, err := h.groups.Update(index, req.fields())
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(index, group))
}

func (h *Handler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	if err := h.groups.Delete(index); err != nil {
		writeGroupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCloneGroup(w http.ResponseWriter, r *http.Request) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	clone, cloneIndex, err := h.groups.Clone(index)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(cloneIndex, clone))
}

func (h *Handler) handleFinalizeGroup(w http.ResponseWriter, r *http.Request) {
	h.setGroupState(w, r, true)
}

func (h *Handler) handleReopenGroup(w http.ResponseWriter, r *http.Request) {
	h.setGroupState(w, r, false)
}

func (h *Handler) setGroupState(w http.ResponseWriter, r *http.Request, finalized bool) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	var group storage.Group
	var err error
	if finalized {
		group, err = h.groups.Finalize(index)
	} else {
		group, err = h.groups.Reopen(index)
	}
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(index, group))
}

func (h *Handler) handleAssignBins(w http.ResponseWriter, r *http.Request) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	var req assignBinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	ids := make([]int, len(req.BinIDs))
	for i, id := range req.BinIDs {
		ids[i] = int(id)
	}

	group, err := h.groups.AssignBins(index, ids)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(index, group))
}

// ── Derivation preview and export ───────────────────────────────────────────

func (h *Handler) handlePreviewGroup(w http.ResponseWriter, r *http.Request) {
	index, ok := pathID(r, "index")
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown group", "group index must be an integer")
		return
	}

	group, err := h.groups.Get(index)
	if err != nil {
		writeGroupError(w, err)
		return
	}

	rows := make([]previewRow, 0, len(group.BinIDs))
	for _, id := range group.BinIDs {
		bin, err := h.library.Get(id)
		if err != nil {
			// Dangling reference: skip silently, same as the report builder.
			continue
		}
		fields := h.engine.Derive(group, bin)
		rows = append(rows, previewRow{
			BinID:     bin.ID,
			Label:     report.BinLabel(bin),
			Aisles:    fields.Aisles,
			QtyPerBay: fields.QtyPerBay,
			TotalQty:  fields.TotalQty,
			GrossCBM:  fields.GrossCBM,
			NetCBM:    fields.NetCBM,
			LipCM:     fields.LipCell,
		})
	}

	writeJSON(w, http.StatusOK, previewResponse{Rows: rows})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	_ = r
	groups := h.groups.List()
	bins := h.library.List()

	if err := export.Guard(len(groups), len(bins)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Export refused", err.Error(),
			"Define at least one bin type and one group before exporting")
		return
	}

	table := report.Build(groups, bins, h.engine)
	data, err := export.Workbook(table, h.maxColWidth)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) currentLibraryUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.libraryUpdatedAt
}

func (h *Handler) markLibraryUpdated() {
	h.mu.Lock()
	h.libraryUpdatedAt = h.clock()
	h.mu.Unlock()
}

func writeGroupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrGroupNotFound) {
		writeError(w, http.StatusNotFound, "Unknown group", err.Error())
		return
	}
	writeInternalError(w, err)
}

// pathID parses an integer path segment. Anything non-numeric resolves to
// "not found" rather than "bad request": the id space is opaque to callers.
func pathID(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, false
	}
	return v, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
