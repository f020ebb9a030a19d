package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type User struct {
	ID             uuid.UUID
	Email          string
	FullName       string
	Role           string
	Status         string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID          uuid.UUID
	ParentID    pgtype.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       decimal.Decimal
	ImageURL    pgtype.Text
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Device struct {
	ID         uuid.UUID
	Name       string
	SerialCode string
	Type       string
	ImageURL   pgtype.Text
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Phase struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	CreatedAt time.Time
}

type TargetValue struct {
	ID        uuid.UUID
	Type      string
	MinValue  decimal.Decimal
	MaxValue  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Plant struct {
	ID        uuid.UUID
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlantTargetRow is a plant's target-value association joined with the target
// bounds and the optional growth phase it is scoped to.
type PlantTargetRow struct {
	TargetValueID uuid.UUID
	Type          string
	MinValue      decimal.Decimal
	MaxValue      decimal.Decimal
	PhaseID       pgtype.UUID
	PhaseName     pgtype.Text
}

type Ticket struct {
	ID          uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Description string
	Type        string
	Status      string
	HandledBy   pgtype.UUID
	TransferTo  pgtype.UUID
	Attachments []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TicketResponse struct {
	ID          uuid.UUID
	TicketID    uuid.UUID
	AuthorID    uuid.UUID
	Message     string
	Attachments []string
	CreatedAt   time.Time
}

type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	UserID         uuid.UUID
	Status         string
	Street         string
	City           string
	State          string
	Zip            string
	Country        string
	PaymentMethod  string
	TrackingNumber pgtype.Text
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

type EmployeeIncome struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	EmployeeName    string
	EmployeeRole    string
	Department      string
	Period          string
	BaseSalary      decimal.Decimal
	TotalIncome     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetIncome       decimal.Decimal
	PaymentStatus   string
	PaymentMethod   string
	PaymentDate     pgtype.Timestamptz
	Notes           pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IncomeItem is a single income or deduction line on an employee income record.
type IncomeItem struct {
	ID       uuid.UUID
	IncomeID uuid.UUID
	ItemType string // Income or Deduction
	Label    string
	Amount   decimal.Decimal
}
