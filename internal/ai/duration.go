package ai

import (
	"regexp"
	"strconv"

	"github.com/studyflow/backend/internal/normalization"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*(?:jam|hours?|hrs?)`)
	minutesRe = regexp.MustCompile(`(\d+)\s*(?:menit|minutes?|mins?)`)
	daysRe    = regexp.MustCompile(`(\d+)\s*(?:hari|days?)`)
	numberRe  = regexp.MustCompile(`\d+`)
)

// ParseDurationMinutes normalizes a duration field from decoded model JSON.
// Models emit either a bare number of minutes or a phrase like
// "3 jam 45 menit" / "2 hours 30 minutes"; anything unparseable falls back.
func ParseDurationMinutes(v interface{}, fallback int) int {
	switch t := v.(type) {
	case nil:
		return fallback
	case float64:
		if t > 0 {
			return int(t)
		}
		return fallback
	case int:
		if t > 0 {
			return t
		}
		return fallback
	case string:
		s := normalization.ParseInputString(t)
		total := 0
		if m := hoursRe.FindStringSubmatch(s); m != nil {
			h, _ := strconv.Atoi(m[1])
			total += h * 60
		}
		if m := minutesRe.FindStringSubmatch(s); m != nil {
			mins, _ := strconv.Atoi(m[1])
			total += mins
		}
		if total > 0 {
			return total
		}
		if m := numberRe.FindString(s); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				return n
			}
		}
		return fallback
	default:
		return fallback
	}
}

// ParseTargetDays normalizes a target-day field ("7 hari", "14 days", 10).
func ParseTargetDays(v interface{}, fallback int) int {
	switch t := v.(type) {
	case nil:
		return fallback
	case float64:
		if t > 0 {
			return int(t)
		}
		return fallback
	case int:
		if t > 0 {
			return t
		}
		return fallback
	case string:
		s := normalization.ParseInputString(t)
		if m := daysRe.FindStringSubmatch(s); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
		if m := numberRe.FindString(s); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				return n
			}
		}
		return fallback
	default:
		return fallback
	}
}

// NormalizeDifficulty maps model difficulty labels, including the
// Indonesian ones older prompts produced, onto easy/medium/hard.
func NormalizeDifficulty(s string) string {
	switch normalization.ParseInputString(s) {
	case "easy", "mudah", "beginner", "pemula":
		return "easy"
	case "hard", "sulit", "advanced", "lanjutan":
		return "hard"
	case "medium", "sedang", "intermediate", "menengah":
		return "medium"
	default:
		return "medium"
	}
}
