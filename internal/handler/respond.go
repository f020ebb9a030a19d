package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// The dashboard client expects every body wrapped in the same envelope:
// successes carry the payload under "response", failures a message under
// "error", and both echo the HTTP status in "statusCodes".

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func writeResponse(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"statusCodes": status,
		"response":    payload,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"statusCodes": status,
		"error":       msg,
	})
}

func writeInternalError(w http.ResponseWriter, op string, err error) {
	log.Printf("ERROR: %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// --- Pagination ---

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type pagination struct {
	PageIndex int32 // 1-based
	PageSize  int32
}

// parsePagination reads pageIndex/pageSize query params. Absent or out-of-range
// values fall back to page 1 with the default size; pageSize is capped.
func parsePagination(r *http.Request) pagination {
	p := pagination{PageIndex: 1, PageSize: defaultPageSize}
	if v, err := strconv.ParseInt(r.URL.Query().Get("pageIndex"), 10, 32); err == nil && v > 0 {
		p.PageIndex = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("pageSize"), 10, 32); err == nil && v > 0 {
		p.PageSize = int32(v)
		if p.PageSize > maxPageSize {
			p.PageSize = maxPageSize
		}
	}
	return p
}

func (p pagination) Limit() int32  { return p.PageSize }
func (p pagination) Offset() int32 { return (p.PageIndex - 1) * p.PageSize }

type pageResponse struct {
	Data        interface{} `json:"data"`
	CurrentPage int32       `json:"currentPage"`
	TotalPages  int32       `json:"totalPages"`
	TotalItems  int64       `json:"totalItems"`
	PageSize    int32       `json:"pageSize"`
	LastPage    bool        `json:"lastPage"`
}

func writePage(w http.ResponseWriter, data interface{}, p pagination, totalItems int64) {
	totalPages := int32((totalItems + int64(p.PageSize) - 1) / int64(p.PageSize))
	writeResponse(w, http.StatusOK, pageResponse{
		Data:        data,
		CurrentPage: p.PageIndex,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PageSize:    p.PageSize,
		LastPage:    p.PageIndex >= totalPages,
	})
}

// --- Query / nullable helpers ---

// queryText returns the named query param as a nullable text filter.
func queryText(r *http.Request, name string) pgtype.Text {
	if v := r.URL.Query().Get(name); v != "" {
		return pgtype.Text{String: v, Valid: true}
	}
	return pgtype.Text{}
}

func nullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
