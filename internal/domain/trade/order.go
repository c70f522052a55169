package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TransportMode is how the goods move
type TransportMode string

const (
	TransportModeOcean TransportMode = "OCEAN"
	TransportModeAir   TransportMode = "AIR"
)

// IsValid checks if the mode is a known TransportMode
func (m TransportMode) IsValid() bool {
	return m == TransportModeOcean || m == TransportModeAir
}

// String returns the string representation of TransportMode
func (m TransportMode) String() string {
	return string(m)
}

// SentinelTariff is the all-nines placeholder a purchase order carries
// when the real tariff/price breakdown is encoded as repeated reference
// segments on the line group instead of a single classification.
const SentinelTariff = "9999999999"

// OrderLine is one line of a purchase order, unique by line number
// within the order. Lines are fully rebuilt from the incoming document
// on every reconciliation; they are never shared across orders.
type OrderLine struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_order_line_number,priority:1"`
	LineNumber       int               `gorm:"not null;uniqueIndex:idx_order_line_number,priority:2"`
	ProductID        uuid.UUID         `gorm:"type:uuid;not null"`
	Quantity         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	UnitOfMeasure    string            `gorm:"type:varchar(10)"`
	SKU              string            `gorm:"type:varchar(50);index"`
	TariffCode       string            `gorm:"type:varchar(20)"`
	UnitPrice        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	CustomAttributes map[string]string `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a new order line
func NewOrderLine(orderID uuid.UUID, lineNumber int, productID uuid.UUID, quantity decimal.Decimal) (*OrderLine, error) {
	if lineNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_LINE_NUMBER", "Line number must be positive")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	now := time.Now()
	return &OrderLine{
		ID:         uuid.New(),
		OrderID:    orderID,
		LineNumber: lineNumber,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SetCustomAttribute records an importer-specific attribute on the line
func (l *OrderLine) SetCustomAttribute(key, value string) {
	if l.CustomAttributes == nil {
		l.CustomAttributes = make(map[string]string)
	}
	l.CustomAttributes[key] = value
	l.UpdatedAt = time.Now()
}

// CloneForTariff copies the line for one entry of a tariff/price
// breakdown. The copy shares every field (including custom attributes)
// except identity, the derived line number, tariff code and price.
func (l *OrderLine) CloneForTariff(sequence int, tariffCode string, unitPrice decimal.Decimal) *OrderLine {
	dup := *l
	dup.ID = uuid.New()
	dup.LineNumber = l.LineNumber*100 + sequence
	dup.TariffCode = tariffCode
	dup.UnitPrice = unitPrice
	if l.CustomAttributes != nil {
		dup.CustomAttributes = make(map[string]string, len(l.CustomAttributes))
		for k, v := range l.CustomAttributes {
			dup.CustomAttributes[k] = v
		}
	}
	return &dup
}

// HasSentinelTariff reports whether the line carries the breakdown
// placeholder instead of a real classification.
func (l *OrderLine) HasSentinelTariff() bool {
	return l.TariffCode == SentinelTariff
}

// Order is a purchase order reconciled from an inbound 850 document,
// identified by (importer, customer order number).
type Order struct {
	shared.ImporterEntity
	OrderNumber   string        `gorm:"type:varchar(50);not null;index:,unique,composite:importer_identity,priority:2"`
	OrderDate     *time.Time    `gorm:"index"`
	Terms         string        `gorm:"type:varchar(50)"`
	Mode          TransportMode `gorm:"type:varchar(10)"`
	Currency      string        `gorm:"type:varchar(3)"`
	Season        string        `gorm:"type:varchar(20)"`
	TradeProgram  string        `gorm:"type:varchar(50)"`
	CountryOrigin string        `gorm:"type:varchar(2)"`
	AgentName     string        `gorm:"type:varchar(200)"`
	DivisionID    *uuid.UUID    `gorm:"type:uuid;index"`
	VendorID      *uuid.UUID    `gorm:"type:uuid;index"`
	FactoryID     *uuid.UUID    `gorm:"type:uuid"`
	ShipToID      *uuid.UUID    `gorm:"type:uuid"`
	EntryNote     string        `gorm:"type:text"`
	Lines         []OrderLine   `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order for an importer
func NewOrder(importerID uuid.UUID, orderNumber string) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}

	return &Order{
		ImporterEntity: shared.NewImporterEntity(importerID),
		OrderNumber:    orderNumber,
		Lines:          make([]OrderLine, 0),
	}, nil
}

// InvalidHeaderValues describes each optional header field whose
// current value cannot be stored under its column constraints. Wire
// documents routinely carry free text where a code belongs.
func (o *Order) InvalidHeaderValues() []string {
	var problems []string
	if o.Currency != "" && len(o.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("currency %q is not a 3-letter code", o.Currency))
	}
	if o.CountryOrigin != "" && len(o.CountryOrigin) != 2 {
		problems = append(problems, fmt.Sprintf("country of origin %q is not a 2-letter code", o.CountryOrigin))
	}
	if len(o.Season) > 20 {
		problems = append(problems, fmt.Sprintf("season %q exceeds 20 characters", o.Season))
	}
	return problems
}

// ClearInvalidHeaderValues blanks every field InvalidHeaderValues
// reports, so an order with imperfect header data stays storable for
// manual review.
func (o *Order) ClearInvalidHeaderValues() {
	if o.Currency != "" && len(o.Currency) != 3 {
		o.Currency = ""
	}
	if o.CountryOrigin != "" && len(o.CountryOrigin) != 2 {
		o.CountryOrigin = ""
	}
	if len(o.Season) > 20 {
		o.Season = ""
	}
	o.UpdatedAt = time.Now()
}

// BeforeSave rejects header values that violate their column limits,
// so every engine fails the same way before any SQL runs. Callers
// decide the policy for invalid values.
func (o *Order) BeforeSave(*gorm.DB) error {
	if problems := o.InvalidHeaderValues(); len(problems) > 0 {
		return shared.NewDomainError("INVALID_ORDER_DATA", strings.Join(problems, "; "))
	}
	return nil
}

// AppendNote attaches a non-fatal note to the order. Persistence
// validation problems are recorded here instead of rejecting the
// document, so staff can review imperfect but stored orders.
func (o *Order) AppendNote(note string) {
	if note == "" {
		return
	}
	if o.EntryNote == "" {
		o.EntryNote = note
	} else {
		o.EntryNote = fmt.Sprintf("%s\n%s", o.EntryNote, note)
	}
	o.UpdatedAt = time.Now()
}

// LineBySKU returns the first line matching the given SKU, or nil
func (o *Order) LineBySKU(sku string) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].SKU == sku {
			return &o.Lines[idx]
		}
	}
	return nil
}

// LineByNumber returns the line with the given line number, or nil
func (o *Order) LineByNumber(number int) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].LineNumber == number {
			return &o.Lines[idx]
		}
	}
	return nil
}

// LineCount returns the number of lines on the order
func (o *Order) LineCount() int {
	return len(o.Lines)
}
