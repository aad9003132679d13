package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"

	"github.com/sertech/docflow/internal/automation"
	"github.com/sertech/docflow/internal/scheduler"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewRunValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("portal", portalValidator),
		},
		{
			Rule: registerFn("ruc", taxIDValidator),
		},
	}
}

func NewScheduleValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("clock", clockValidator),
		},
		{
			Rule: registerFn("weekday", weekdayValidator),
		},
		{
			Rule: registerFn("ruc", taxIDValidator),
		},
	}
}

var (
	taxIDRe = regexp.MustCompile(`^\d{11}$`)
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func portalValidator(fl validator.FieldLevel) bool {
	return funk.ContainsString(automation.PortalTargets(), fl.Field().String())
}

// taxIDValidator accepts an 11-digit RUC.
func taxIDValidator(fl validator.FieldLevel) bool {
	return taxIDRe.MatchString(fl.Field().String())
}

// clockValidator accepts a 24h HH:MM wall-clock time.
func clockValidator(fl validator.FieldLevel) bool {
	return clockRe.MatchString(fl.Field().String())
}

func weekdayValidator(fl validator.FieldLevel) bool {
	return scheduler.KnownDay(fl.Field().String())
}
