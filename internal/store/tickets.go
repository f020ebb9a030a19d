package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ticketColumns = `id, created_by, title, description, type, status, handled_by, transfer_to, attachments, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.CreatedBy, &t.Title, &t.Description, &t.Type, &t.Status,
		&t.HandledBy, &t.TransferTo, &t.Attachments, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) collectTickets(ctx context.Context, sql string, args ...any) ([]Ticket, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (q *Queries) GetTicket(ctx context.Context, id uuid.UUID) (Ticket, error) {
	row := q.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

type ListTicketsParams struct {
	Keyword   pgtype.Text
	Status    pgtype.Text
	Type      pgtype.Text
	CreatedBy pgtype.UUID
	Limit     int32
	Offset    int32
}

const ticketFilter = `
	($1::text IS NULL OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR status = $2)
	AND ($3::text IS NULL OR type = $3)
	AND ($4::uuid IS NULL OR created_by = $4)`

func (q *Queries) ListTickets(ctx context.Context, arg ListTicketsParams) ([]Ticket, error) {
	return q.collectTickets(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE `+ticketFilter+`
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.Keyword, arg.Status, arg.Type, arg.CreatedBy, arg.Limit, arg.Offset)
}

func (q *Queries) CountTickets(ctx context.Context, arg ListTicketsParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM tickets WHERE `+ticketFilter,
		arg.Keyword, arg.Status, arg.Type, arg.CreatedBy).Scan(&n)
	return n, err
}

// ListAssignedTickets returns tickets currently handled by the given staff
// user, including those awaiting the user's transfer decision.
func (q *Queries) ListAssignedTickets(ctx context.Context, staffID uuid.UUID) ([]Ticket, error) {
	return q.collectTickets(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE handled_by = $1 OR transfer_to = $1
		ORDER BY created_at DESC`, staffID)
}

type CreateTicketParams struct {
	CreatedBy   uuid.UUID
	Title       string
	Description string
	Type        string
	Status      string
	Attachments []string
}

func (q *Queries) CreateTicket(ctx context.Context, arg CreateTicketParams) (Ticket, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tickets (created_by, title, description, type, status, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+ticketColumns,
		arg.CreatedBy, arg.Title, arg.Description, arg.Type, arg.Status, arg.Attachments)
	return scanTicket(row)
}

type UpdateTicketStateParams struct {
	ID         uuid.UUID
	Status     string
	HandledBy  pgtype.UUID
	TransferTo pgtype.UUID
	// FromStatus guards against concurrent transitions: the update only
	// applies while the row still holds the status the caller read.
	FromStatus string
}

// UpdateTicketState applies a status transition together with its handler and
// transfer-target changes in one compare-and-set statement.
func (q *Queries) UpdateTicketState(ctx context.Context, arg UpdateTicketStateParams) (Ticket, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tickets
		SET status = $2, handled_by = $3, transfer_to = $4, updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+ticketColumns,
		arg.ID, arg.Status, arg.HandledBy, arg.TransferTo, arg.FromStatus)
	return scanTicket(row)
}

const ticketResponseColumns = `id, ticket_id, author_id, message, attachments, created_at`

func scanTicketResponse(row interface{ Scan(...any) error }) (TicketResponse, error) {
	var tr TicketResponse
	err := row.Scan(&tr.ID, &tr.TicketID, &tr.AuthorID, &tr.Message, &tr.Attachments, &tr.CreatedAt)
	return tr, err
}

func (q *Queries) ListTicketResponses(ctx context.Context, ticketID uuid.UUID) ([]TicketResponse, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ticketResponseColumns+` FROM ticket_responses
		WHERE ticket_id = $1
		ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []TicketResponse
	for rows.Next() {
		tr, err := scanTicketResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, tr)
	}
	return responses, rows.Err()
}

type CreateTicketResponseParams struct {
	TicketID    uuid.UUID
	AuthorID    uuid.UUID
	Message     string
	Attachments []string
}

func (q *Queries) CreateTicketResponse(ctx context.Context, arg CreateTicketResponseParams) (TicketResponse, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ticket_responses (ticket_id, author_id, message, attachments)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ticketResponseColumns,
		arg.TicketID, arg.AuthorID, arg.Message, arg.Attachments)
	return scanTicketResponse(row)
}
