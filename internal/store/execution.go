package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/sertech/docflow/internal/store/model"
)

type Execution interface {
	List(ctx context.Context, limit int) (model.ExecutionRecordList, error)
	Create(ctx context.Context, record model.ExecutionRecord) (*model.ExecutionRecord, error)
	UpdateStatus(ctx context.Context, id uint, status, detail string) error
	InitialMigration() error
}

type ExecutionStore struct {
	db *gorm.DB
}

// Make sure we conform to Execution interface
var _ Execution = (*ExecutionStore)(nil)

func NewExecutionStore(db *gorm.DB) Execution {
	return &ExecutionStore{db: db}
}

func (s *ExecutionStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.ExecutionRecord{})
}

func (s *ExecutionStore) List(ctx context.Context, limit int) (model.ExecutionRecordList, error) {
	var records model.ExecutionRecordList
	query := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *ExecutionStore) Create(ctx context.Context, record model.ExecutionRecord) (*model.ExecutionRecord, error) {
	result := s.db.WithContext(ctx).Create(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (s *ExecutionStore) UpdateStatus(ctx context.Context, id uint, status, detail string) error {
	result := s.db.WithContext(ctx).Model(&model.ExecutionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "detail": detail})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
