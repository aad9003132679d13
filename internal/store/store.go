// Package store persists the control plane's configuration and audit data:
// societies, ERP accounts, schedule rules and the execution trail.
package store

import (
	"gorm.io/gorm"
)

type Store interface {
	Society() Society
	SapAccount() SapAccount
	Schedule() Schedule
	Execution() Execution
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	society    Society
	sapAccount SapAccount
	schedule   Schedule
	execution  Execution
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:         db,
		society:    NewSocietyStore(db),
		sapAccount: NewSapAccountStore(db),
		schedule:   NewScheduleStore(db),
		execution:  NewExecutionStore(db),
	}
}

func (s *DataStore) Society() Society {
	return s.society
}

func (s *DataStore) SapAccount() SapAccount {
	return s.sapAccount
}

func (s *DataStore) Schedule() Schedule {
	return s.schedule
}

func (s *DataStore) Execution() Execution {
	return s.execution
}

func (s *DataStore) InitialMigration() error {
	for _, m := range []interface{ InitialMigration() error }{
		s.society, s.sapAccount, s.schedule, s.execution,
	} {
		if err := m.InitialMigration(); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
