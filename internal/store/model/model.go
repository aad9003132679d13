package model

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

// Society is one legal entity whose documents are retrieved, together with
// its tax-portal credentials.
type Society struct {
	gorm.Model
	TaxID    string `gorm:"uniqueIndex;not null"`
	Code     string `gorm:"not null"`
	Name     string
	User     string
	Password string
	Active   bool `gorm:"default:true"`
}

type SocietyList []Society

func (s Society) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}

// SapAccount is a shared ERP credential. At most one account is active at a
// time; every ERP run uses the active one.
type SapAccount struct {
	gorm.Model
	User     string `gorm:"uniqueIndex;not null"`
	Password string
	Active   bool `gorm:"default:false"`
}

// ScheduleRule configures an automatic execution: fire at Time on each of
// the listed days against the listed societies. Days is stored as a
// comma-separated token list ("Lunes,Mié,viernes"); Societies as a
// comma-separated list of tax IDs, empty meaning every active society.
type ScheduleRule struct {
	gorm.Model
	Name      string `gorm:"not null"`
	Time      string `gorm:"not null"` // HH:MM, local clock
	Days      string
	Societies string
	Active    bool `gorm:"default:true"`
}

type ScheduleRuleList []ScheduleRule

func (r ScheduleRule) DayList() []string {
	return splitList(r.Days)
}

func (r ScheduleRule) SocietyList() []string {
	return splitList(r.Societies)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Execution trigger types.
const (
	ExecutionManual    = "M"
	ExecutionAutomatic = "A"
)

// Execution statuses.
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// ExecutionRecord is the audit trail of one portal run: who or what
// triggered it, against which society, and how it ended.
type ExecutionRecord struct {
	gorm.Model
	Type        string `gorm:"not null;size:1"` // M or A
	TaxID       string `gorm:"index;not null"`
	SocietyCode string
	Portal      string `gorm:"not null"`
	TriggeredBy string
	Status      string `gorm:"not null"`
	Detail      string
	JobID       string `gorm:"index"`
}

type ExecutionRecordList []ExecutionRecord

func (e ExecutionRecord) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}
