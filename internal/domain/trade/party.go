package trade

import (
	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// CompanyType distinguishes the trading partners referenced by orders
type CompanyType string

const (
	CompanyTypeVendor  CompanyType = "VENDOR"
	CompanyTypeFactory CompanyType = "FACTORY"
	CompanyTypeShipTo  CompanyType = "SHIPTO"
)

// IsValid checks if the type is a known CompanyType
func (t CompanyType) IsValid() bool {
	switch t {
	case CompanyTypeVendor, CompanyTypeFactory, CompanyTypeShipTo:
		return true
	}
	return false
}

// Company is a trading partner (vendor, factory, or ship-to location)
// referenced by orders, unique by (importer, type, system code).
type Company struct {
	shared.ImporterEntity
	Type       CompanyType `gorm:"type:varchar(10);not null;index:,unique,composite:importer_identity,priority:2"`
	SystemCode string      `gorm:"type:varchar(50);not null;index:,unique,composite:importer_identity,priority:3"`
	Name       string      `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a new trading partner
func NewCompany(importerID uuid.UUID, companyType CompanyType, systemCode, name string) (*Company, error) {
	if !companyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMPANY_TYPE", "Unknown company type")
	}
	if systemCode == "" {
		return nil, shared.NewDomainError("INVALID_SYSTEM_CODE", "Company system code cannot be empty")
	}

	return &Company{
		ImporterEntity: shared.NewImporterEntity(importerID),
		Type:           companyType,
		SystemCode:     systemCode,
		Name:           name,
	}, nil
}

// Division is an importer sub-entity (a brand or business division)
// resolved from the division party loop, unique by (importer, name).
type Division struct {
	shared.ImporterEntity
	Name string `gorm:"type:varchar(100);not null;index:,unique,composite:importer_identity,priority:2"`
	Code string `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (Division) TableName() string {
	return "divisions"
}

// NewDivision creates a new division
func NewDivision(importerID uuid.UUID, name string) (*Division, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DIVISION", "Division name cannot be empty")
	}

	return &Division{
		ImporterEntity: shared.NewImporterEntity(importerID),
		Name:           name,
	}, nil
}
