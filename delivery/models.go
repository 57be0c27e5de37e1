package delivery

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Charge side codes. Codes are matched case-insensitively.
const (
	SideSell = "sell"
	SideBuy  = "buy"
)

// ChargeSide classifies a charge as customer-facing (sell) or internal cost (buy).
type ChargeSide struct {
	ID   string `gorm:"primaryKey;size:36"`
	Code string `gorm:"size:16;not null;index"`
	Name string `gorm:"size:64"`
}

func (ChargeSide) TableName() string { return "charge_sides" }

// Account is the customer a quote is addressed to.
type Account struct {
	ID                string `gorm:"primaryKey;size:36"`
	Name              string `gorm:"size:200;not null"`
	ContactName       string `gorm:"size:200"`
	BillingStreet     string `gorm:"size:200"`
	BillingCity       string `gorm:"size:100"`
	BillingState      string `gorm:"size:100"`
	BillingPostalCode string `gorm:"size:20"`
	BillingCountry    string `gorm:"size:100"`
}

func (Account) TableName() string { return "accounts" }

// Quote is the quotation header row.
type Quote struct {
	ID          string   `gorm:"primaryKey;size:36"`
	QuoteNumber string   `gorm:"size:64;index"`
	AccountID   *string  `gorm:"size:36"`
	Account     *Account `gorm:"foreignKey:AccountID"`
	Currency    string   `gorm:"size:3"`
	TotalAmount *float64
	ValidUntil  *time.Time
	Status      string `gorm:"size:32"`
	Notes       string `gorm:"type:text"`
	Terms       string `gorm:"type:text"`
	Commodity   string `gorm:"size:200"`
	TotalWeight *float64
	TotalVolume *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Quote) TableName() string { return "quotes" }

// QuotationVersion is one revision of a quote. PDFPath is written after a
// document has been stored.
type QuotationVersion struct {
	ID            string `gorm:"primaryKey;size:36"`
	QuoteID       string `gorm:"size:36;not null;index"`
	VersionNumber int
	PDFPath       string `gorm:"column:pdf_path;size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (QuotationVersion) TableName() string { return "quotation_versions" }

// QuoteLeg is one routing segment.
type QuoteLeg struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	QuoteID            string  `gorm:"size:36;not null;index"`
	QuotationVersionID *string `gorm:"size:36;index"`
	Seq                int
	Mode               string `gorm:"size:32"`
	Origin             string `gorm:"size:200"`
	Destination        string `gorm:"size:200"`
	CarrierName        string `gorm:"size:200"`
}

func (QuoteLeg) TableName() string { return "quote_legs" }

// QuoteItem is one cargo line.
type QuoteItem struct {
	ID            string `gorm:"primaryKey;size:36"`
	QuoteID       string `gorm:"size:36;not null;index"`
	SortOrder     int
	ContainerType string `gorm:"size:64"`
	Quantity      float64
	Commodity     string `gorm:"size:200"`
	Details       string `gorm:"size:500"`
}

func (QuoteItem) TableName() string { return "quote_items" }

// QuoteCharge is one priced line on either charge side.
type QuoteCharge struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	QuoteID            string  `gorm:"size:36;not null;index"`
	QuotationVersionID *string `gorm:"size:36;index"`
	ChargeSideID       string  `gorm:"size:36;not null;index"`
	SortOrder          int
	Description        string `gorm:"size:500"`
	Amount             float64
	Currency           string `gorm:"size:3"`
	Quantity           *float64
	UnitPrice          *float64
}

func (QuoteCharge) TableName() string { return "quote_charges" }

// AuditEvent is one row of the audit log.
type AuditEvent struct {
	ID             string `gorm:"primaryKey;size:36"`
	Event          string `gorm:"size:64;not null;index"`
	QuoteID        string `gorm:"size:36;index"`
	VersionID      string `gorm:"size:36"`
	Path           string `gorm:"size:512"`
	TemplateID     string `gorm:"size:64"`
	TraceID        string `gorm:"size:32"`
	IdempotencyKey string `gorm:"size:64"`
	CreatedAt      time.Time
}

func (AuditEvent) TableName() string { return "audit_logs" }

// Migrate creates or updates every delivery table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&ChargeSide{},
		&Account{},
		&Quote{},
		&QuotationVersion{},
		&QuoteLeg{},
		&QuoteItem{},
		&QuoteCharge{},
		&AuditEvent{},
	)
}
