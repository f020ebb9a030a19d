package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/store"
)

// DeviceStore defines the database methods needed by device handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type DeviceStore interface {
	GetDevice(ctx context.Context, id uuid.UUID) (store.Device, error)
	ListDevices(ctx context.Context, arg store.ListDevicesParams) ([]store.Device, error)
	CountDevices(ctx context.Context, arg store.ListDevicesParams) (int64, error)
	CreateDevice(ctx context.Context, arg store.CreateDeviceParams) (store.Device, error)
	UpdateDevice(ctx context.Context, arg store.UpdateDeviceParams) (store.Device, error)
	DeleteDevice(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// DeviceHandler handles IoT device CRUD endpoints.
type DeviceHandler struct {
	store     DeviceStore
	uploadDir string
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(store DeviceStore, uploadDir string) *DeviceHandler {
	return &DeviceHandler{store: store, uploadDir: uploadDir}
}

// RegisterRoutes registers device CRUD endpoints on the given Chi router.
func (h *DeviceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type deviceRequest struct {
	Name       string `json:"name"`
	SerialCode string `json:"serial_code"`
	Type       string `json:"type"`
	Status     string `json:"status"`
}

type deviceResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SerialCode string    `json:"serial_code"`
	Type       string    `json:"type"`
	ImageURL   *string   `json:"image_url"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDeviceResponse(d store.Device) deviceResponse {
	return deviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		SerialCode: d.SerialCode,
		Type:       d.Type,
		ImageURL:   textPtr(d.ImageURL),
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
	}
}

func (h *DeviceHandler) parseDeviceRequest(r *http.Request) (deviceRequest, pgtype.Text, error) {
	var req deviceRequest
	var image pgtype.Text

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return req, image, err
		}
		req.Name = r.FormValue("name")
		req.SerialCode = r.FormValue("serial_code")
		req.Type = r.FormValue("type")
		req.Status = r.FormValue("status")

		path, err := saveUpload(r, "attachment", h.uploadDir)
		if err != nil {
			return req, image, err
		}
		image = nullableText(path)
		return req, image, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, image, err
}

func validateDeviceRequest(w http.ResponseWriter, req deviceRequest) bool {
	if req.Name == "" || req.SerialCode == "" {
		writeError(w, http.StatusBadRequest, "name and serial_code are required")
		return false
	}
	if !enum.IsDeviceType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid device type")
		return false
	}
	if !enum.IsEntityStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return false
	}
	return true
}

// --- Handlers ---

// List returns a page of devices. The keyword filter matches name and serial code.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListDevicesParams{
		Keyword: queryText(r, "keyword"),
		Type:    queryText(r, "type"),
		Status:  queryText(r, "status"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	devices, err := h.store.ListDevices(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list devices", err)
		return
	}
	total, err := h.store.CountDevices(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count devices", err)
		return
	}

	resp := make([]deviceResponse, len(devices))
	for i, d := range devices {
		resp[i] = toDeviceResponse(d)
	}
	writePage(w, resp, p, total)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	device, err := h.store.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		writeInternalError(w, "get device", err)
		return
	}

	writeResponse(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, image, err := h.parseDeviceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = enum.EntityStatusActive
	}
	if !validateDeviceRequest(w, req) {
		return
	}

	device, err := h.store.CreateDevice(r.Context(), store.CreateDeviceParams{
		Name:       req.Name,
		SerialCode: req.SerialCode,
		Type:       req.Type,
		ImageURL:   image,
		Status:     req.Status,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "serial_code already registered")
			return
		}
		writeInternalError(w, "create device", err)
		return
	}

	writeResponse(w, http.StatusCreated, toDeviceResponse(device))
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	req, image, err := h.parseDeviceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateDeviceRequest(w, req) {
		return
	}

	device, err := h.store.UpdateDevice(r.Context(), store.UpdateDeviceParams{
		ID:         id,
		Name:       req.Name,
		SerialCode: req.SerialCode,
		Type:       req.Type,
		ImageURL:   image,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "serial_code already registered")
			return
		}
		writeInternalError(w, "update device", err)
		return
	}

	writeResponse(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	if _, err := h.store.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		writeInternalError(w, "delete device", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
