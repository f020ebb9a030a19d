package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/hmes-platform/api/internal/auth"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/handler"
	"github.com/hmes-platform/api/internal/store"
)

type mockTicketStore struct {
	tickets   map[uuid.UUID]store.Ticket
	responses map[uuid.UUID][]store.TicketResponse
	users     map[uuid.UUID]store.User
}

func newMockTicketStore() *mockTicketStore {
	return &mockTicketStore{
		tickets:   make(map[uuid.UUID]store.Ticket),
		responses: make(map[uuid.UUID][]store.TicketResponse),
		users:     make(map[uuid.UUID]store.User),
	}
}

func (m *mockTicketStore) GetTicket(_ context.Context, id uuid.UUID) (store.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return store.Ticket{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockTicketStore) ListTickets(_ context.Context, arg store.ListTicketsParams) ([]store.Ticket, error) {
	var result []store.Ticket
	for _, t := range m.tickets {
		if arg.CreatedBy.Valid && t.CreatedBy != uuid.UUID(arg.CreatedBy.Bytes) {
			continue
		}
		if arg.Status.Valid && t.Status != arg.Status.String {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *mockTicketStore) CountTickets(ctx context.Context, arg store.ListTicketsParams) (int64, error) {
	tickets, _ := m.ListTickets(ctx, arg)
	return int64(len(tickets)), nil
}

func (m *mockTicketStore) ListAssignedTickets(_ context.Context, staffID uuid.UUID) ([]store.Ticket, error) {
	var result []store.Ticket
	for _, t := range m.tickets {
		handled := t.HandledBy.Valid && uuid.UUID(t.HandledBy.Bytes) == staffID
		pending := t.TransferTo.Valid && uuid.UUID(t.TransferTo.Bytes) == staffID
		if handled || pending {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketStore) CreateTicket(_ context.Context, arg store.CreateTicketParams) (store.Ticket, error) {
	t := store.Ticket{
		ID:          uuid.New(),
		CreatedBy:   arg.CreatedBy,
		Title:       arg.Title,
		Description: arg.Description,
		Type:        arg.Type,
		Status:      arg.Status,
		Attachments: arg.Attachments,
	}
	m.tickets[t.ID] = t
	return t, nil
}

func (m *mockTicketStore) UpdateTicketState(_ context.Context, arg store.UpdateTicketStateParams) (store.Ticket, error) {
	t, ok := m.tickets[arg.ID]
	if !ok || t.Status != arg.FromStatus {
		// Compare-and-set miss behaves like a vanished row.
		return store.Ticket{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	t.HandledBy = arg.HandledBy
	t.TransferTo = arg.TransferTo
	m.tickets[t.ID] = t
	return t, nil
}

func (m *mockTicketStore) ListTicketResponses(_ context.Context, ticketID uuid.UUID) ([]store.TicketResponse, error) {
	return m.responses[ticketID], nil
}

func (m *mockTicketStore) CreateTicketResponse(_ context.Context, arg store.CreateTicketResponseParams) (store.TicketResponse, error) {
	tr := store.TicketResponse{
		ID:          uuid.New(),
		TicketID:    arg.TicketID,
		AuthorID:    arg.AuthorID,
		Message:     arg.Message,
		Attachments: arg.Attachments,
	}
	m.responses[arg.TicketID] = append(m.responses[arg.TicketID], tr)
	return tr, nil
}

func (m *mockTicketStore) GetUserByID(_ context.Context, id uuid.UUID) (store.User, error) {
	u, ok := m.users[id]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockTicketStore) addStaff() store.User {
	u := store.User{ID: uuid.New(), Email: uuid.NewString() + "@test.com", Role: enum.UserRoleStaff, Status: enum.EntityStatusActive}
	m.users[u.ID] = u
	return u
}

func (m *mockTicketStore) addTicket(createdBy uuid.UUID, status string) store.Ticket {
	t := store.Ticket{
		ID:          uuid.New(),
		CreatedBy:   createdBy,
		Title:       "pH sensor reads zero",
		Description: "The pH sensor on bed 3 stopped reporting.",
		Type:        enum.TicketTypeTechnical,
		Status:      status,
	}
	m.tickets[t.ID] = t
	return t
}

// mockNotifier records broadcast events so tests can assert on them.
type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Broadcast(event string, _ interface{}) {
	m.events = append(m.events, event)
}

func setupTicketRouter(s *mockTicketStore, n *mockNotifier) *chi.Mux {
	h := handler.NewTicketHandler(s, n, testUploadDir)
	r := chi.NewRouter()
	r.Route("/ticket", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterStaffRoutes(r)
	})
	return r
}

func staffClaims(id uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: id, Role: enum.UserRoleStaff}
}

func customerClaims(id uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: id, Role: enum.UserRoleCustomer}
}

func TestCreateTicket_Valid(t *testing.T) {
	s := newMockTicketStore()
	n := &mockNotifier{}
	router := setupTicketRouter(s, n)
	customer := uuid.New()

	rr := doRequestAs(t, router, "POST", "/ticket", map[string]string{
		"title":       "Wrong item delivered",
		"description": "Ordered basil seedlings, received mint.",
		"type":        "Shopping",
	}, customerClaims(customer))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusPending {
		t.Errorf("status: got %v, want Pending", resp["status"])
	}
	if resp["handled_by"] != nil {
		t.Errorf("handled_by: got %v, want null", resp["handled_by"])
	}
	if resp["created_by"] != customer.String() {
		t.Errorf("created_by: got %v, want %s", resp["created_by"], customer)
	}
	if len(n.events) != 1 || n.events[0] != "ticket.created" {
		t.Errorf("events: got %v, want [ticket.created]", n.events)
	}
}

func TestCreateTicket_InvalidType(t *testing.T) {
	router := setupTicketRouter(newMockTicketStore(), &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket", map[string]string{
		"title":       "Help",
		"description": "Something broke",
		"type":        "Billing",
	}, customerClaims(uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListTickets_CustomerSeesOnlyOwn(t *testing.T) {
	s := newMockTicketStore()
	mine := uuid.New()
	other := uuid.New()
	s.addTicket(mine, enum.TicketStatusPending)
	s.addTicket(other, enum.TicketStatusPending)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "GET", "/ticket", nil, customerClaims(mine))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	items, _ := envelopePage(t, rr)
	if len(items) != 1 {
		t.Fatalf("expected 1 ticket for the customer, got %d", len(items))
	}
}

func TestListTickets_StaffSeesAll(t *testing.T) {
	s := newMockTicketStore()
	s.addTicket(uuid.New(), enum.TicketStatusPending)
	s.addTicket(uuid.New(), enum.TicketStatusPending)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "GET", "/ticket", nil, staffClaims(uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	items, _ := envelopePage(t, rr)
	if len(items) != 2 {
		t.Fatalf("expected 2 tickets for staff, got %d", len(items))
	}
}

func TestAssignedTickets_IncludesTransferTargets(t *testing.T) {
	s := newMockTicketStore()
	staff := s.addStaff()
	handled := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	handled.HandledBy = pgtype.UUID{Bytes: staff.ID, Valid: true}
	s.tickets[handled.ID] = handled
	incoming := s.addTicket(uuid.New(), enum.TicketStatusIsTransferring)
	incoming.TransferTo = pgtype.UUID{Bytes: staff.ID, Valid: true}
	s.tickets[incoming.ID] = incoming
	s.addTicket(uuid.New(), enum.TicketStatusPending)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "GET", "/ticket/assigned", nil, staffClaims(staff.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	env := decodeEnvelope(t, rr)
	items, _ := env["response"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 assigned tickets, got %d", len(items))
	}
}

func TestGetTicket_CustomerCannotSeeOthers(t *testing.T) {
	s := newMockTicketStore()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusPending)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "GET", "/ticket/"+ticket.ID.String(), nil, customerClaims(uuid.New()))

	// 404 rather than 403 so the endpoint doesn't confirm the ticket exists.
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAssignTicket_Valid(t *testing.T) {
	s := newMockTicketStore()
	staff := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusPending)
	n := &mockNotifier{}
	router := setupTicketRouter(s, n)

	rr := doRequestAs(t, router, "POST", "/ticket/assign/"+ticket.ID.String(), nil, staffClaims(staff.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusInProgress {
		t.Errorf("status: got %v, want InProgress", resp["status"])
	}
	if resp["handled_by"] != staff.ID.String() {
		t.Errorf("handled_by: got %v, want %s", resp["handled_by"], staff.ID)
	}
	if len(n.events) != 1 || n.events[0] != "ticket.assigned" {
		t.Errorf("events: got %v, want [ticket.assigned]", n.events)
	}
}

func TestAssignTicket_AlreadyAssigned(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/assign/"+ticket.ID.String(), nil, staffClaims(s.addStaff().ID))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if msg := envelopeError(t, rr); msg != "ticket is already assigned" {
		t.Errorf("error: got %q, want 'ticket is already assigned'", msg)
	}
}

func TestRequestTransfer_Valid(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	n := &mockNotifier{}
	router := setupTicketRouter(s, n)

	rr := doRequestAs(t, router, "POST", "/ticket/transfer/"+ticket.ID.String(), map[string]string{
		"target_staff_id": target.ID.String(),
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusIsTransferring {
		t.Errorf("status: got %v, want IsTransferring", resp["status"])
	}
	if resp["transfer_to"] != target.ID.String() {
		t.Errorf("transfer_to: got %v, want %s", resp["transfer_to"], target.ID)
	}
	// Handler keeps the ticket until the target accepts.
	if resp["handled_by"] != holder.ID.String() {
		t.Errorf("handled_by: got %v, want %s", resp["handled_by"], holder.ID)
	}
}

func TestRequestTransfer_ToSelf(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/transfer/"+ticket.ID.String(), map[string]string{
		"target_staff_id": holder.ID.String(),
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := envelopeError(t, rr); msg != "cannot transfer a ticket to yourself" {
		t.Errorf("error: got %q, want 'cannot transfer a ticket to yourself'", msg)
	}
}

func TestRequestTransfer_NotHandler(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/transfer/"+ticket.ID.String(), map[string]string{
		"target_staff_id": target.ID.String(),
	}, staffClaims(s.addStaff().ID))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequestTransfer_InactiveTarget(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	target.Status = enum.EntityStatusInactive
	s.users[target.ID] = target
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/transfer/"+ticket.ID.String(), map[string]string{
		"target_staff_id": target.ID.String(),
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := envelopeError(t, rr); msg != "transfer target must be an active staff user" {
		t.Errorf("error: got %q, want 'transfer target must be an active staff user'", msg)
	}
}

func TestDecideTransfer_Accept(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusIsTransferring)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	ticket.TransferTo = pgtype.UUID{Bytes: target.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/transfer/"+ticket.ID.String(), map[string]bool{
		"accept": true,
	}, staffClaims(target.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusInProgress {
		t.Errorf("status: got %v, want InProgress", resp["status"])
	}
	if resp["handled_by"] != target.ID.String() {
		t.Errorf("handled_by: got %v, want %s (new handler)", resp["handled_by"], target.ID)
	}
	if resp["transfer_to"] != nil {
		t.Errorf("transfer_to: got %v, want null", resp["transfer_to"])
	}
}

func TestDecideTransfer_Reject(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusIsTransferring)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	ticket.TransferTo = pgtype.UUID{Bytes: target.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/transfer/"+ticket.ID.String(), map[string]bool{
		"accept": false,
	}, staffClaims(target.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusTransferRejected {
		t.Errorf("status: got %v, want TransferRejected", resp["status"])
	}
	// Original handler keeps the ticket.
	if resp["handled_by"] != holder.ID.String() {
		t.Errorf("handled_by: got %v, want %s", resp["handled_by"], holder.ID)
	}
}

func TestDecideTransfer_OnlyTarget(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusIsTransferring)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	ticket.TransferTo = pgtype.UUID{Bytes: target.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/transfer/"+ticket.ID.String(), map[string]bool{
		"accept": true,
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if msg := envelopeError(t, rr); msg != "only the transfer target can decide" {
		t.Errorf("error: got %q, want 'only the transfer target can decide'", msg)
	}
}

func TestDecideTransfer_NoTransferPending(t *testing.T) {
	s := newMockTicketStore()
	target := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/transfer/"+ticket.ID.String(), map[string]bool{
		"accept": true,
	}, staffClaims(target.ID))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRespond_Valid(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/response", map[string]string{
		"ticket_id": ticket.ID.String(),
		"message":   "Replaced the probe, readings are back.",
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(s.responses[ticket.ID]) != 1 {
		t.Errorf("expected 1 stored response, got %d", len(s.responses[ticket.ID]))
	}
}

func TestRespond_ClosedTicket(t *testing.T) {
	s := newMockTicketStore()
	customer := uuid.New()
	ticket := s.addTicket(customer, enum.TicketStatusClosed)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/response", map[string]string{
		"ticket_id": ticket.ID.String(),
		"message":   "Hello?",
	}, customerClaims(customer))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if msg := envelopeError(t, rr); msg != "ticket does not accept responses in its current status" {
		t.Errorf("error: got %q", msg)
	}
}

func TestRespond_Outsider(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "POST", "/ticket/response", map[string]string{
		"ticket_id": ticket.ID.String(),
		"message":   "Let me jump in",
	}, staffClaims(s.addStaff().ID))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestUpdateTicketStatus_Done(t *testing.T) {
	s := newMockTicketStore()
	holder := s.addStaff()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	ticket.HandledBy = pgtype.UUID{Bytes: holder.ID, Valid: true}
	s.tickets[ticket.ID] = ticket
	n := &mockNotifier{}
	router := setupTicketRouter(s, n)

	rr := doRequestAs(t, router, "PUT", "/ticket/status/"+ticket.ID.String(), map[string]string{
		"status": enum.TicketStatusDone,
	}, staffClaims(holder.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["status"] != enum.TicketStatusDone {
		t.Errorf("status: got %v, want Done", resp["status"])
	}
	if len(n.events) != 1 || n.events[0] != "ticket.status_changed" {
		t.Errorf("events: got %v, want [ticket.status_changed]", n.events)
	}
}

func TestUpdateTicketStatus_RejectsNonTerminal(t *testing.T) {
	s := newMockTicketStore()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusInProgress)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/status/"+ticket.ID.String(), map[string]string{
		"status": enum.TicketStatusInProgress,
	}, staffClaims(uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := envelopeError(t, rr); msg != "status must be Done or Closed" {
		t.Errorf("error: got %q, want 'status must be Done or Closed'", msg)
	}
}

func TestUpdateTicketStatus_TerminalIsFinal(t *testing.T) {
	s := newMockTicketStore()
	ticket := s.addTicket(uuid.New(), enum.TicketStatusClosed)
	router := setupTicketRouter(s, &mockNotifier{})

	rr := doRequestAs(t, router, "PUT", "/ticket/status/"+ticket.ID.String(), map[string]string{
		"status": enum.TicketStatusDone,
	}, staffClaims(uuid.New()))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}
