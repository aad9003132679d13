package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/sertech/docflow/internal/store/model"
)

type Society interface {
	List(ctx context.Context) (model.SocietyList, error)
	ListActive(ctx context.Context) (model.SocietyList, error)
	GetByTaxID(ctx context.Context, taxID string) (*model.Society, error)
	Create(ctx context.Context, society model.Society) (*model.Society, error)
	Update(ctx context.Context, society model.Society) (*model.Society, error)
	Delete(ctx context.Context, taxID string) error
	InitialMigration() error
}

type SocietyStore struct {
	db *gorm.DB
}

// Make sure we conform to Society interface
var _ Society = (*SocietyStore)(nil)

func NewSocietyStore(db *gorm.DB) Society {
	return &SocietyStore{db: db}
}

func (s *SocietyStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Society{})
}

func (s *SocietyStore) List(ctx context.Context) (model.SocietyList, error) {
	var societies model.SocietyList
	result := s.db.WithContext(ctx).Order("tax_id").Find(&societies)
	if result.Error != nil {
		return nil, result.Error
	}
	return societies, nil
}

func (s *SocietyStore) ListActive(ctx context.Context) (model.SocietyList, error) {
	var societies model.SocietyList
	result := s.db.WithContext(ctx).Where("active = ?", true).Order("tax_id").Find(&societies)
	if result.Error != nil {
		return nil, result.Error
	}
	return societies, nil
}

func (s *SocietyStore) GetByTaxID(ctx context.Context, taxID string) (*model.Society, error) {
	society := &model.Society{}
	result := s.db.WithContext(ctx).Where("tax_id = ?", taxID).First(society)
	if result.Error != nil {
		return nil, result.Error
	}
	return society, nil
}

func (s *SocietyStore) Create(ctx context.Context, society model.Society) (*model.Society, error) {
	result := s.db.WithContext(ctx).Create(&society)
	if result.Error != nil {
		return nil, result.Error
	}
	return &society, nil
}

func (s *SocietyStore) Update(ctx context.Context, society model.Society) (*model.Society, error) {
	existing, err := s.GetByTaxID(ctx, society.TaxID)
	if err != nil {
		return nil, err
	}
	society.ID = existing.ID
	result := s.db.WithContext(ctx).Save(&society)
	if result.Error != nil {
		return nil, result.Error
	}
	return &society, nil
}

func (s *SocietyStore) Delete(ctx context.Context, taxID string) error {
	result := s.db.WithContext(ctx).Unscoped().Where("tax_id = ?", taxID).Delete(&model.Society{})
	return result.Error
}
