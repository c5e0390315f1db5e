package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - an operator of the shop (admin or vendedor)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:120" json:"email"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	FullName     string    `json:"full_name"`
	Role         string    `gorm:"size:20;default:vendedor" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:120" json:"name"`
	CNPJ      string    `gorm:"uniqueIndex;size:20" json:"cnpj"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:120" json:"name"`
	CPF       string    `gorm:"uniqueIndex;size:14" json:"cpf"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product - The Inventory. Quantities are decimal because most produce is sold by kg.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"index;size:120" json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2)" json:"cost_price"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(12,3)" json:"stock_quantity"`
	MinStock      decimal.Decimal `gorm:"type:decimal(12,3)" json:"min_stock"`
	Unit          string          `gorm:"size:20" json:"unit"` // kg, un, maço...
	Category      string          `gorm:"size:60" json:"category"`
	SupplierID    *uint           `json:"supplier_id"`
	Supplier      *Supplier       `json:"supplier,omitempty"`
	ImageURL      string          `json:"image_url"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Location - a place where stock is kept (shelf, cold room, warehouse)
type Location struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Name         string           `gorm:"size:80" json:"name"`
	LocationType string           `gorm:"size:40;index" json:"location_type"`
	Description  string           `json:"description"`
	Temperature  *decimal.Decimal `gorm:"type:decimal(5,1)" json:"temperature"` // °C, cold rooms only
	Capacity     *decimal.Decimal `gorm:"type:decimal(12,3)" json:"capacity"`
	IsActive     bool             `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ProductLocation - how much of a product is kept at one location
type ProductLocation struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProductID   uint            `gorm:"uniqueIndex:idx_product_location" json:"product_id"`
	Product     *Product        `json:"product,omitempty"`
	LocationID  uint            `gorm:"uniqueIndex:idx_product_location;index" json:"location_id"`
	Location    *Location       `json:"location,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3)" json:"quantity"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(12,3)" json:"min_quantity"`
	MaxQuantity decimal.Decimal `gorm:"type:decimal(12,3)" json:"max_quantity"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SupplierBox - a returnable crate lent by a supplier, tracked by weight
type SupplierBox struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	SupplierID    uint             `gorm:"uniqueIndex:idx_supplier_box" json:"supplier_id"`
	Supplier      *Supplier        `json:"supplier,omitempty"`
	BoxNumber     string           `gorm:"uniqueIndex:idx_supplier_box;size:40" json:"box_number"`
	BoxType       string           `gorm:"size:40" json:"box_type"`
	Capacity      *decimal.Decimal `gorm:"type:decimal(12,3)" json:"capacity"` // kg
	CurrentWeight decimal.Decimal  `gorm:"type:decimal(12,3)" json:"current_weight"`
	Status        string           `gorm:"size:20;index" json:"status"` // disponivel, em_uso, danificada, perdida
	Notes         string           `json:"notes"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// BoxMovement - weight put into or taken out of a supplier box
type BoxMovement struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SupplierBoxID uint            `gorm:"index" json:"supplier_box_id"`
	UserID        uint            `json:"user_id"`
	User          *User           `json:"user,omitempty"`
	MovementType  string          `gorm:"size:10" json:"movement_type"` // entrada, saida
	Weight        decimal.Decimal `gorm:"type:decimal(12,3)" json:"weight"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Sale - The Transaction Header
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CustomerID    *uint           `gorm:"index" json:"customer_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	SellerID      uint            `gorm:"index" json:"seller_id"` // Who processed it
	Seller        *User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PaymentMethod string          `gorm:"size:20;index" json:"payment_method"`
	Status        string          `gorm:"size:20;default:completed" json:"status"` // completed, pending, cancelled
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - one line of a sale, with the price snapshot taken at checkout
type SaleItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SaleID     uint            `gorm:"index" json:"sale_id"`
	ProductID  uint            `json:"product_id"`
	Product    *Product        `json:"product,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3)" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_price"`
}

// StockMovement - audit trail for every stock change
type StockMovement struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProductID    uint            `gorm:"index" json:"product_id"`
	Product      *Product        `json:"product,omitempty"`
	UserID       uint            `json:"user_id"`
	User         *User           `json:"user,omitempty"`
	MovementType string          `gorm:"size:10" json:"movement_type"` // entrada, saida, ajuste
	Quantity     decimal.Decimal `gorm:"type:decimal(12,3)" json:"quantity"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AccountReceivable - money owed for a sale on credit
type AccountReceivable struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SaleID     uint            `gorm:"uniqueIndex" json:"sale_id"`
	Sale       *Sale           `json:"sale,omitempty"`
	CustomerID uint            `gorm:"index" json:"customer_id"`
	Customer   *Customer       `json:"customer,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"paid_amount"`
	DueDate    time.Time       `gorm:"index" json:"due_date"`
	Status     string          `gorm:"size:10;index" json:"status"` // pending, partial, paid, overdue
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Remaining is what is still owed.
func (a AccountReceivable) Remaining() decimal.Decimal {
	return a.Amount.Sub(a.PaidAmount)
}

// Payment - a settlement (full or partial) of an account receivable
type Payment struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	AccountReceivableID uint            `gorm:"index" json:"account_receivable_id"`
	Amount              decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	PaymentMethod       string          `gorm:"size:20" json:"payment_method"`
	Notes               string          `json:"notes"`
	PaymentDate         time.Time       `json:"payment_date"`
	CreatedBy           uint            `json:"created_by"`
	User                *User           `gorm:"foreignKey:CreatedBy" json:"user,omitempty"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Supplier{},
		&Customer{},
		&Product{},
		&Location{},
		&ProductLocation{},
		&SupplierBox{},
		&BoxMovement{},
		&Sale{},
		&SaleItem{},
		&StockMovement{},
		&AccountReceivable{},
		&Payment{},
	}
}
