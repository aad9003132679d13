package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/sertech/docflow/internal/store/model"
)

type Schedule interface {
	List(ctx context.Context) (model.ScheduleRuleList, error)
	ListActive(ctx context.Context) (model.ScheduleRuleList, error)
	Get(ctx context.Context, id uint) (*model.ScheduleRule, error)
	Create(ctx context.Context, rule model.ScheduleRule) (*model.ScheduleRule, error)
	Update(ctx context.Context, rule model.ScheduleRule) (*model.ScheduleRule, error)
	Delete(ctx context.Context, id uint) error
	InitialMigration() error
}

type ScheduleStore struct {
	db *gorm.DB
}

// Make sure we conform to Schedule interface
var _ Schedule = (*ScheduleStore)(nil)

func NewScheduleStore(db *gorm.DB) Schedule {
	return &ScheduleStore{db: db}
}

func (s *ScheduleStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.ScheduleRule{})
}

func (s *ScheduleStore) List(ctx context.Context) (model.ScheduleRuleList, error) {
	var rules model.ScheduleRuleList
	result := s.db.WithContext(ctx).Order("id").Find(&rules)
	if result.Error != nil {
		return nil, result.Error
	}
	return rules, nil
}

func (s *ScheduleStore) ListActive(ctx context.Context) (model.ScheduleRuleList, error) {
	var rules model.ScheduleRuleList
	result := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&rules)
	if result.Error != nil {
		return nil, result.Error
	}
	return rules, nil
}

func (s *ScheduleStore) Get(ctx context.Context, id uint) (*model.ScheduleRule, error) {
	rule := &model.ScheduleRule{}
	result := s.db.WithContext(ctx).First(rule, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return rule, nil
}

func (s *ScheduleStore) Create(ctx context.Context, rule model.ScheduleRule) (*model.ScheduleRule, error) {
	result := s.db.WithContext(ctx).Create(&rule)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rule, nil
}

func (s *ScheduleStore) Update(ctx context.Context, rule model.ScheduleRule) (*model.ScheduleRule, error) {
	result := s.db.WithContext(ctx).Save(&rule)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rule, nil
}

func (s *ScheduleStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&model.ScheduleRule{}, id)
	return result.Error
}
