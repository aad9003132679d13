package scheduler

import (
	"strings"
	"time"

	"github.com/thoas/go-funk"
)

// weekdayTokens maps a weekday to the spellings accepted in a rule's day
// list. Rules are written by Spanish-speaking accountants, so the Spanish
// names and their usual abbreviations come first; English is accepted too.
var weekdayTokens = map[time.Weekday][]string{
	time.Monday:    {"lunes", "lun", "lu", "monday", "mon"},
	time.Tuesday:   {"martes", "mar", "ma", "tuesday", "tue"},
	time.Wednesday: {"miércoles", "miercoles", "mié", "mie", "mi", "wednesday", "wed"},
	time.Thursday:  {"jueves", "jue", "ju", "thursday", "thu"},
	time.Friday:    {"viernes", "vie", "vi", "friday", "fri"},
	time.Saturday:  {"sábado", "sabado", "sáb", "sab", "sa", "saturday", "sat"},
	time.Sunday:    {"domingo", "dom", "do", "sunday", "sun"},
}

// KnownDay reports whether token is an accepted weekday spelling.
func KnownDay(token string) bool {
	normalized := strings.ToLower(strings.TrimSpace(token))
	for _, tokens := range weekdayTokens {
		if funk.ContainsString(tokens, normalized) {
			return true
		}
	}
	return false
}

// dayMatches reports whether any entry of days names the given weekday.
// Matching is case-insensitive and ignores surrounding whitespace; an empty
// list matches nothing.
func dayMatches(days []string, weekday time.Weekday) bool {
	tokens := weekdayTokens[weekday]
	for _, day := range days {
		if funk.ContainsString(tokens, strings.ToLower(strings.TrimSpace(day))) {
			return true
		}
	}
	return false
}
