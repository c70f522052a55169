package logistics

import (
	"github.com/tradeflow/backend/internal/domain/shared"
)

// PortCodeType identifies the coding scheme a port code belongs to
type PortCodeType string

const (
	PortCodeTypeUNLOC  PortCodeType = "UNLOC"
	PortCodeTypeSchedK PortCodeType = "SCHEDK"
)

// IsValid checks if the type is a known PortCodeType
func (t PortCodeType) IsValid() bool {
	return t == PortCodeTypeUNLOC || t == PortCodeTypeSchedK
}

// Port is a reference-table entry resolved during shipment header
// parsing. Ports are shared across importers and never created by the
// reconciliation engine; an unknown code simply leaves the shipment
// field unset.
type Port struct {
	shared.BaseEntity
	CodeType PortCodeType `gorm:"type:varchar(10);not null;uniqueIndex:idx_port_type_code,priority:1"`
	Code     string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_port_type_code,priority:2"`
	Name     string       `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Port) TableName() string {
	return "ports"
}

// NewPort creates a new port reference entry
func NewPort(codeType PortCodeType, code, name string) (*Port, error) {
	if !codeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PORT_CODE_TYPE", "Unknown port code type")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PORT_CODE", "Port code cannot be empty")
	}

	return &Port{
		BaseEntity: shared.NewBaseEntity(),
		CodeType:   codeType,
		Code:       code,
		Name:       name,
	}, nil
}
