package enum

// ── State machines (guarded in internal/workflow) ──

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

const (
	TicketStatusPending          = "Pending"
	TicketStatusInProgress       = "InProgress"
	TicketStatusIsTransferring   = "IsTransferring"
	TicketStatusTransferRejected = "TransferRejected"
	TicketStatusDone             = "Done"
	TicketStatusClosed           = "Closed"
)

const (
	PaymentStatusPending    = "Pending"
	PaymentStatusProcessing = "Processing"
	PaymentStatusProcessed  = "Processed"
	PaymentStatusCompleted  = "Completed"
	PaymentStatusCancelled  = "Cancelled"
)

// ── Flat lifecycle shared by category, product, device, plant, user ──

const (
	EntityStatusActive   = "Active"
	EntityStatusInactive = "Inactive"
)

// ── Closed vocabularies ──

const (
	UserRoleAdmin    = "Admin"
	UserRoleStaff    = "Staff"
	UserRoleCustomer = "Customer"
)

const (
	TicketTypeShopping  = "Shopping"
	TicketTypeTechnical = "Technical"
)

const (
	MeasurementPH                  = "pH"
	MeasurementSoluteConcentration = "SoluteConcentration"
	MeasurementTemperature         = "Temperature"
	MeasurementWaterLevel          = "WaterLevel"
)

const (
	DeviceTypeSensor     = "Sensor"
	DeviceTypePump       = "Pump"
	DeviceTypeLight      = "Light"
	DeviceTypeController = "Controller"
)

const (
	PaymentMethodCash         = "Cash"
	PaymentMethodBankTransfer = "BankTransfer"
	PaymentMethodCard         = "Card"
)

const (
	IncomeItemTypeIncome    = "Income"
	IncomeItemTypeDeduction = "Deduction"
)

// MeasurementTypes is the closed set shown on plant detail screens; types
// without an assigned target still appear as missing rows.
var MeasurementTypes = []string{
	MeasurementPH,
	MeasurementSoluteConcentration,
	MeasurementTemperature,
	MeasurementWaterLevel,
}

// IsMeasurementType reports whether s is one of the four supported types.
func IsMeasurementType(s string) bool {
	for _, t := range MeasurementTypes {
		if s == t {
			return true
		}
	}
	return false
}

// IsTicketType reports whether s is a valid ticket type.
func IsTicketType(s string) bool {
	return s == TicketTypeShopping || s == TicketTypeTechnical
}

// IsDeviceType reports whether s is a valid device type.
func IsDeviceType(s string) bool {
	switch s {
	case DeviceTypeSensor, DeviceTypePump, DeviceTypeLight, DeviceTypeController:
		return true
	}
	return false
}

// IsUserRole reports whether s is a valid user role.
func IsUserRole(s string) bool {
	switch s {
	case UserRoleAdmin, UserRoleStaff, UserRoleCustomer:
		return true
	}
	return false
}

// IsEntityStatus reports whether s is Active or Inactive.
func IsEntityStatus(s string) bool {
	return s == EntityStatusActive || s == EntityStatusInactive
}

// IsPaymentMethod reports whether s is a supported payment method.
func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard:
		return true
	}
	return false
}
