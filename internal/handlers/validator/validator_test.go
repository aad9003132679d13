package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type runForm struct {
	Portal string   `validate:"required,portal"`
	TaxIDs []string `validate:"dive,ruc"`
}

type scheduleForm struct {
	Time string   `validate:"required,clock"`
	Days []string `validate:"min=1,dive,weekday"`
}

func TestRunValidation(t *testing.T) {
	v := NewValidator()
	v.Register(NewRunValidationRules()...)

	tests := []struct {
		name    string
		form    runForm
		wantErr bool
	}{
		{name: "tax portal", form: runForm{Portal: "sunat"}},
		{name: "erp portal", form: runForm{Portal: "sap"}},
		{name: "unknown portal", form: runForm{Portal: "facebook"}, wantErr: true},
		{name: "missing portal", form: runForm{}, wantErr: true},
		{name: "valid ruc", form: runForm{Portal: "sunat", TaxIDs: []string{"20100113612"}}},
		{name: "short ruc", form: runForm{Portal: "sunat", TaxIDs: []string{"123"}}, wantErr: true},
		{name: "alpha ruc", form: runForm{Portal: "sunat", TaxIDs: []string{"2010011361A"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleValidation(t *testing.T) {
	v := NewValidator()
	v.Register(NewScheduleValidationRules()...)

	tests := []struct {
		name    string
		form    scheduleForm
		wantErr bool
	}{
		{name: "spanish days", form: scheduleForm{Time: "09:00", Days: []string{"Lunes", "Mié"}}},
		{name: "english days", form: scheduleForm{Time: "23:59", Days: []string{"monday"}}},
		{name: "bad time", form: scheduleForm{Time: "25:00", Days: []string{"Lunes"}}, wantErr: true},
		{name: "bad minute", form: scheduleForm{Time: "09:61", Days: []string{"Lunes"}}, wantErr: true},
		{name: "unknown day", form: scheduleForm{Time: "09:00", Days: []string{"Someday"}}, wantErr: true},
		{name: "no days", form: scheduleForm{Time: "09:00"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
