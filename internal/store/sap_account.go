package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/sertech/docflow/internal/store/model"
)

type SapAccount interface {
	List(ctx context.Context) ([]model.SapAccount, error)
	GetActive(ctx context.Context) (*model.SapAccount, error)
	Create(ctx context.Context, account model.SapAccount) (*model.SapAccount, error)
	// SetActive makes the named account the active one, demoting the rest.
	SetActive(ctx context.Context, user string) error
	Delete(ctx context.Context, user string) error
	InitialMigration() error
}

type SapAccountStore struct {
	db *gorm.DB
}

// Make sure we conform to SapAccount interface
var _ SapAccount = (*SapAccountStore)(nil)

func NewSapAccountStore(db *gorm.DB) SapAccount {
	return &SapAccountStore{db: db}
}

func (s *SapAccountStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.SapAccount{})
}

func (s *SapAccountStore) List(ctx context.Context) ([]model.SapAccount, error) {
	var accounts []model.SapAccount
	result := s.db.WithContext(ctx).Order("user").Find(&accounts)
	if result.Error != nil {
		return nil, result.Error
	}
	return accounts, nil
}

func (s *SapAccountStore) GetActive(ctx context.Context) (*model.SapAccount, error) {
	account := &model.SapAccount{}
	result := s.db.WithContext(ctx).Where("active = ?", true).First(account)
	if result.Error != nil {
		return nil, result.Error
	}
	return account, nil
}

func (s *SapAccountStore) Create(ctx context.Context, account model.SapAccount) (*model.SapAccount, error) {
	result := s.db.WithContext(ctx).Create(&account)
	if result.Error != nil {
		return nil, result.Error
	}
	return &account, nil
}

func (s *SapAccountStore) SetActive(ctx context.Context, user string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SapAccount{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		result := tx.Model(&model.SapAccount{}).Where("user = ?", user).Update("active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (s *SapAccountStore) Delete(ctx context.Context, user string) error {
	result := s.db.WithContext(ctx).Unscoped().Where("user = ?", user).Delete(&model.SapAccount{})
	return result.Error
}
