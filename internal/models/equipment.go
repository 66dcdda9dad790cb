package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquipmentStatus is the operational state of a piece of equipment.
type EquipmentStatus string

// Equipment statuses.
const (
	EquipmentActive   EquipmentStatus = "active"
	EquipmentInactive EquipmentStatus = "inactive"
)

// PurchaseType describes how a client acquired the equipment.
type PurchaseType string

// Purchase types.
const (
	PurchaseComodato     PurchaseType = "comodato"
	PurchaseOnePayment   PurchaseType = "one_payment"
	PurchaseInstallments PurchaseType = "installments"
)

// EquipmentRef is a resolved snapshot of equipment embedded in a request.
type EquipmentRef struct {
	ID        string          `json:"id"`
	KitNumber string          `json:"kit_number"`
	Name      string          `json:"name"`
	Status    EquipmentStatus `json:"status"`
}

// SupplierRef is a resolved snapshot of a supplier.
type SupplierRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Equipment is a leased antenna. An active antenna always has a plan and an
// inactive one never does.
type Equipment struct {
	ID                string              `json:"id"`
	KitNumber         string              `json:"kit_number"`
	Name              string              `json:"name"`
	Client            *UserRef            `json:"client"`
	Supplier          *SupplierRef        `json:"supplier"`
	PurchaseType      PurchaseType        `json:"purchase_type"`
	PaidInstallments  int                 `json:"paid_installments"`
	TotalInstallments int                 `json:"total_installments"`
	InstallmentAmount decimal.NullDecimal `json:"installment_amount"`
	Status            EquipmentStatus     `json:"status"`
	Plan              *PlanRef            `json:"plan"`
	ActivationDate    *time.Time          `json:"activation_date"`
	DeactivationDate  *time.Time          `json:"deactivation_date"`
	Notes             string              `json:"notes"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// PlanID returns the assigned plan id, or nil when no plan is assigned.
func (e *Equipment) PlanID() *string {
	if e.Plan == nil {
		return nil
	}

	id := e.Plan.ID

	return &id
}

// ClientID returns the owning client's id, or "" when unassigned.
func (e *Equipment) ClientID() string {
	if e.Client == nil {
		return ""
	}

	return e.Client.ID
}

// Ref returns the snapshot of e embedded in requests.
func (e *Equipment) Ref() *EquipmentRef {
	return &EquipmentRef{ID: e.ID, KitNumber: e.KitNumber, Name: e.Name, Status: e.Status}
}

// EquipmentUpdate is a generic field update. Nil fields are left untouched.
type EquipmentUpdate struct {
	PlanID *string
	Notes  *string
}
