package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanRef is a resolved snapshot of a connectivity plan.
type PlanRef struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DataAmount string          `json:"data_amount"`
	Price      decimal.Decimal `json:"price"`
}

// Plan is a connectivity plan offered by a supplier.
type Plan struct {
	ID         string          `json:"id"`
	SupplierID string          `json:"supplier_id"`
	Name       string          `json:"name"`
	DataAmount string          `json:"data_amount"`
	Price      decimal.Decimal `json:"price"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Ref returns the snapshot of p embedded in requests and equipment.
func (p *Plan) Ref() *PlanRef {
	return &PlanRef{ID: p.ID, Name: p.Name, DataAmount: p.DataAmount, Price: p.Price}
}
