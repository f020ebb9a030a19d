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
	"github.com/hmes-platform/api/internal/middleware"
	"github.com/hmes-platform/api/internal/store"
	"github.com/hmes-platform/api/internal/workflow"
)

// TicketStore defines the database methods needed by ticket handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type TicketStore interface {
	GetTicket(ctx context.Context, id uuid.UUID) (store.Ticket, error)
	ListTickets(ctx context.Context, arg store.ListTicketsParams) ([]store.Ticket, error)
	CountTickets(ctx context.Context, arg store.ListTicketsParams) (int64, error)
	ListAssignedTickets(ctx context.Context, staffID uuid.UUID) ([]store.Ticket, error)
	CreateTicket(ctx context.Context, arg store.CreateTicketParams) (store.Ticket, error)
	UpdateTicketState(ctx context.Context, arg store.UpdateTicketStateParams) (store.Ticket, error)
	ListTicketResponses(ctx context.Context, ticketID uuid.UUID) ([]store.TicketResponse, error)
	CreateTicketResponse(ctx context.Context, arg store.CreateTicketResponseParams) (store.TicketResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
}

// TicketNotifier pushes ticket events to connected dashboards.
// Satisfied by *ws.Hub.
type TicketNotifier interface {
	Broadcast(event string, payload interface{})
}

// TicketHandler handles support ticket endpoints: CRUD, assignment, transfer
// between staff, responses and status changes. Every state change is checked
// against the ticket workflow table and announced on the websocket hub.
type TicketHandler struct {
	store     TicketStore
	notifier  TicketNotifier
	uploadDir string
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(store TicketStore, notifier TicketNotifier, uploadDir string) *TicketHandler {
	return &TicketHandler{store: store, notifier: notifier, uploadDir: uploadDir}
}

// RegisterRoutes registers ticket endpoints on the given Chi router.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Post("/response", h.Respond)
}

// RegisterStaffRoutes registers the assignment and lifecycle endpoints.
// Mount behind a Staff/Admin role check.
func (h *TicketHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/assigned", h.Assigned)
	r.Post("/assign/{id}", h.Assign)
	r.Post("/transfer/{id}", h.RequestTransfer)
	r.Put("/transfer/{id}", h.DecideTransfer)
	r.Put("/status/{id}", h.UpdateStatus)
}

// --- Request / Response types ---

type createTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Attachments []string `json:"attachments"`
}

type transferTicketRequest struct {
	TargetStaffID string `json:"target_staff_id"`
}

type decideTransferRequest struct {
	Accept bool `json:"accept"`
}

type ticketResponseRequest struct {
	TicketID    string   `json:"ticket_id"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments"`
}

type ticketStatusRequest struct {
	Status string `json:"status"`
}

type ticketResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	HandledBy   *string   `json:"handled_by"`
	TransferTo  *string   `json:"transfer_to"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}

type ticketReplyResponse struct {
	ID          uuid.UUID `json:"id"`
	TicketID    uuid.UUID `json:"ticket_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Message     string    `json:"message"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}

type ticketDetailResponse struct {
	ticketResponse
	Responses []ticketReplyResponse `json:"responses"`
}

func toTicketResponse(t store.Ticket) ticketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return ticketResponse{
		ID:          t.ID,
		CreatedBy:   t.CreatedBy,
		Title:       t.Title,
		Description: t.Description,
		Type:        t.Type,
		Status:      t.Status,
		HandledBy:   uuidPtr(t.HandledBy),
		TransferTo:  uuidPtr(t.TransferTo),
		Attachments: attachments,
		CreatedAt:   t.CreatedAt,
	}
}

func toTicketReplyResponse(tr store.TicketResponse) ticketReplyResponse {
	attachments := tr.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return ticketReplyResponse{
		ID:          tr.ID,
		TicketID:    tr.TicketID,
		AuthorID:    tr.AuthorID,
		Message:     tr.Message,
		Attachments: attachments,
		CreatedAt:   tr.CreatedAt,
	}
}

func (h *TicketHandler) notify(event string, t store.Ticket) {
	if h.notifier != nil {
		h.notifier.Broadcast(event, toTicketResponse(t))
	}
}

// --- Handlers ---

// List returns a page of tickets. Customers only see their own tickets; staff
// and admins see everything.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	p := parsePagination(r)
	arg := store.ListTicketsParams{
		Keyword: queryText(r, "keyword"),
		Status:  queryText(r, "status"),
		Type:    queryText(r, "type"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}
	if claims.Role == enum.UserRoleCustomer {
		arg.CreatedBy = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}

	tickets, err := h.store.ListTickets(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list tickets", err)
		return
	}
	total, err := h.store.CountTickets(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count tickets", err)
		return
	}

	resp := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = toTicketResponse(t)
	}
	writePage(w, resp, p, total)
}

// Assigned returns the tickets currently handled by the calling staff user,
// including those awaiting the user's transfer decision.
func (h *TicketHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	tickets, err := h.store.ListAssignedTickets(r.Context(), claims.UserID)
	if err != nil {
		writeInternalError(w, "list assigned tickets", err)
		return
	}

	resp := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = toTicketResponse(t)
	}
	writeResponse(w, http.StatusOK, resp)
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role == enum.UserRoleCustomer && ticket.CreatedBy != claims.UserID {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}

	replies, err := h.store.ListTicketResponses(r.Context(), id)
	if err != nil {
		writeInternalError(w, "list ticket responses", err)
		return
	}

	resp := ticketDetailResponse{
		ticketResponse: toTicketResponse(ticket),
		Responses:      make([]ticketReplyResponse, len(replies)),
	}
	for i, reply := range replies {
		resp.Responses[i] = toTicketReplyResponse(reply)
	}
	writeResponse(w, http.StatusOK, resp)
}

// Create opens a new ticket in Pending with no handler.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createTicketRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Type = r.FormValue("type")

		paths, err := saveUploads(r, "attachments", h.uploadDir)
		if err != nil {
			writeInternalError(w, "save ticket attachments", err)
			return
		}
		req.Attachments = paths
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "title and description are required")
		return
	}
	if !enum.IsTicketType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid ticket type")
		return
	}

	ticket, err := h.store.CreateTicket(r.Context(), store.CreateTicketParams{
		CreatedBy:   claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      enum.TicketStatusPending,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeInternalError(w, "create ticket", err)
		return
	}

	h.notify("ticket.created", ticket)
	writeResponse(w, http.StatusCreated, toTicketResponse(ticket))
}

// Assign sets the calling staff user as handler. Only unhandled tickets can
// be claimed.
func (h *TicketHandler) Assign(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	if ticket.HandledBy.Valid {
		writeError(w, http.StatusConflict, "ticket is already assigned")
		return
	}
	if err := workflow.ValidateTicketTransition(ticket.Status, enum.TicketStatusInProgress); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := h.store.UpdateTicketState(r.Context(), store.UpdateTicketStateParams{
		ID:         id,
		Status:     enum.TicketStatusInProgress,
		HandledBy:  pgtype.UUID{Bytes: claims.UserID, Valid: true},
		TransferTo: pgtype.UUID{},
		FromStatus: ticket.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "ticket status changed, retry")
			return
		}
		writeInternalError(w, "assign ticket", err)
		return
	}

	h.notify("ticket.assigned", updated)
	writeResponse(w, http.StatusOK, toTicketResponse(updated))
}

// RequestTransfer asks another staff member to take over. Only the current
// handler of an InProgress ticket may request one.
func (h *TicketHandler) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	var req transferTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetID, err := uuid.Parse(req.TargetStaffID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_staff_id")
		return
	}
	if targetID == claims.UserID {
		writeError(w, http.StatusBadRequest, "cannot transfer a ticket to yourself")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	if !ticket.HandledBy.Valid || uuid.UUID(ticket.HandledBy.Bytes) != claims.UserID {
		writeError(w, http.StatusForbidden, "only the current handler can transfer the ticket")
		return
	}
	if err := workflow.ValidateTicketTransition(ticket.Status, enum.TicketStatusIsTransferring); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	target, err := h.store.GetUserByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "target staff not found")
			return
		}
		writeInternalError(w, "get transfer target", err)
		return
	}
	if target.Role == enum.UserRoleCustomer || target.Status != enum.EntityStatusActive {
		writeError(w, http.StatusBadRequest, "transfer target must be an active staff user")
		return
	}

	updated, err := h.store.UpdateTicketState(r.Context(), store.UpdateTicketStateParams{
		ID:         id,
		Status:     enum.TicketStatusIsTransferring,
		HandledBy:  ticket.HandledBy,
		TransferTo: pgtype.UUID{Bytes: targetID, Valid: true},
		FromStatus: ticket.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "ticket status changed, retry")
			return
		}
		writeInternalError(w, "transfer ticket", err)
		return
	}

	h.notify("ticket.transfer_requested", updated)
	writeResponse(w, http.StatusOK, toTicketResponse(updated))
}

// DecideTransfer accepts or rejects a pending transfer. Only the transfer
// target may decide. Accepting hands the ticket over; rejecting leaves the
// current handler in place and marks the ticket TransferRejected.
func (h *TicketHandler) DecideTransfer(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	var req decideTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	if ticket.Status != enum.TicketStatusIsTransferring {
		writeError(w, http.StatusConflict, "no transfer pending on this ticket")
		return
	}
	if !ticket.TransferTo.Valid || uuid.UUID(ticket.TransferTo.Bytes) != claims.UserID {
		writeError(w, http.StatusForbidden, "only the transfer target can decide")
		return
	}

	arg := store.UpdateTicketStateParams{
		ID:         id,
		TransferTo: pgtype.UUID{},
		FromStatus: ticket.Status,
	}
	if req.Accept {
		arg.Status = enum.TicketStatusInProgress
		arg.HandledBy = ticket.TransferTo
	} else {
		arg.Status = enum.TicketStatusTransferRejected
		arg.HandledBy = ticket.HandledBy
	}

	updated, err := h.store.UpdateTicketState(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "ticket status changed, retry")
			return
		}
		writeInternalError(w, "decide ticket transfer", err)
		return
	}

	h.notify("ticket.transfer_decided", updated)
	writeResponse(w, http.StatusOK, toTicketResponse(updated))
}

// Respond appends a message to the ticket conversation. Responses are only
// accepted while the ticket is actively being handled.
func (h *TicketHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ticketResponseRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.TicketID = r.FormValue("ticket_id")
		req.Message = r.FormValue("message")

		paths, err := saveUploads(r, "attachments", h.uploadDir)
		if err != nil {
			writeInternalError(w, "save response attachments", err)
			return
		}
		req.Attachments = paths
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticketID, err := uuid.Parse(req.TicketID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket_id")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	if !workflow.TicketAcceptsResponses(ticket.Status) {
		writeError(w, http.StatusConflict, "ticket does not accept responses in its current status")
		return
	}

	isCreator := ticket.CreatedBy == claims.UserID
	isHandler := ticket.HandledBy.Valid && uuid.UUID(ticket.HandledBy.Bytes) == claims.UserID
	if !isCreator && !isHandler {
		writeError(w, http.StatusForbidden, "only the creator or handler can respond")
		return
	}

	reply, err := h.store.CreateTicketResponse(r.Context(), store.CreateTicketResponseParams{
		TicketID:    ticketID,
		AuthorID:    claims.UserID,
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeInternalError(w, "create ticket response", err)
		return
	}

	h.notify("ticket.responded", ticket)
	writeResponse(w, http.StatusCreated, toTicketReplyResponse(reply))
}

// UpdateStatus closes out a ticket. Only the terminal statuses are reachable
// through this endpoint; everything else moves via assign/transfer.
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	var req ticketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != enum.TicketStatusDone && req.Status != enum.TicketStatusClosed {
		writeError(w, http.StatusBadRequest, "status must be Done or Closed")
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeInternalError(w, "get ticket", err)
		return
	}

	if err := workflow.ValidateTicketTransition(ticket.Status, req.Status); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := h.store.UpdateTicketState(r.Context(), store.UpdateTicketStateParams{
		ID:         id,
		Status:     req.Status,
		HandledBy:  ticket.HandledBy,
		TransferTo: pgtype.UUID{},
		FromStatus: ticket.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "ticket status changed, retry")
			return
		}
		writeInternalError(w, "update ticket status", err)
		return
	}

	h.notify("ticket.status_changed", updated)
	writeResponse(w, http.StatusOK, toTicketResponse(updated))
}
