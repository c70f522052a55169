package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindOrCreate resolves a company by (type, system code), creating it
// when absent. Names are never overwritten on an existing row; party
// loops repeat across documents and the first seen name wins.
func (r *GormCompanyRepository) FindOrCreate(ctx context.Context, importerID uuid.UUID, companyType trade.CompanyType, systemCode, name string) (*trade.Company, error) {
	company, err := r.find(ctx, importerID, companyType, systemCode)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	company, err = trade.NewCompany(importerID, companyType, systemCode, name)
	if err != nil {
		return nil, err
	}
	if createErr := r.db.WithContext(ctx).Create(company).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return r.find(ctx, importerID, companyType, systemCode)
		}
		return nil, createErr
	}
	return company, nil
}

func (r *GormCompanyRepository) find(ctx context.Context, importerID uuid.UUID, companyType trade.CompanyType, systemCode string) (*trade.Company, error) {
	var company trade.Company
	if err := r.db.WithContext(ctx).
		Where("importer_id = ? AND type = ? AND system_code = ?", importerID, companyType, systemCode).
		First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// GormDivisionRepository implements DivisionRepository using GORM
type GormDivisionRepository struct {
	db *gorm.DB
}

// NewGormDivisionRepository creates a new GormDivisionRepository
func NewGormDivisionRepository(db *gorm.DB) *GormDivisionRepository {
	return &GormDivisionRepository{db: db}
}

// FindOrCreateByName resolves a division by name, creating it when absent
func (r *GormDivisionRepository) FindOrCreateByName(ctx context.Context, importerID uuid.UUID, name string) (*trade.Division, error) {
	division, err := r.find(ctx, importerID, name)
	if err == nil {
		return division, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	division, err = trade.NewDivision(importerID, name)
	if err != nil {
		return nil, err
	}
	if createErr := r.db.WithContext(ctx).Create(division).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return r.find(ctx, importerID, name)
		}
		return nil, createErr
	}
	return division, nil
}

func (r *GormDivisionRepository) find(ctx context.Context, importerID uuid.UUID, name string) (*trade.Division, error) {
	var division trade.Division
	if err := r.db.WithContext(ctx).
		Where("importer_id = ? AND name = ?", importerID, name).
		First(&division).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &division, nil
}

var _ trade.CompanyRepository = (*GormCompanyRepository)(nil)
var _ trade.DivisionRepository = (*GormDivisionRepository)(nil)
