package ai

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

// Default strings substituted for missing summary fields.
const (
	DefaultShortSummary = "Summary not available"
	DefaultSalary       = "Not specified"
	DefaultHowToApply   = "Check official notification"
)

// ReservationCategories are always present in a vacancy breakdown.
var ReservationCategories = []string{"UR", "OBC", "SC", "ST", "EWS"}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// flatten lifts the fields of a nested "importantPoints" object to the top
// level. Top-level fields win over nested ones.
func flatten(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	if nested, ok := raw["importantPoints"].(map[string]any); ok {
		for k, v := range nested {
			out[k] = v
		}
	}
	for k, v := range raw {
		if k == "importantPoints" {
			continue
		}
		out[k] = v
	}
	return out
}

// DefaultSummary builds a fully populated AISummary from a decoded model
// response. Every missing or invalid value is replaced by its default: empty
// lists, absent dates and amounts, zero counts and the fixed strings above.
// Both the flat shape and the nested importantPoints shape are accepted.
func DefaultSummary(raw map[string]any) model.AISummary {
	f := flatten(raw)

	dates := object(f["importantDates"])
	limit := object(f["ageLimit"])
	vac := object(f["vacancies"])
	fees := object(f["applicationFees"])

	return model.AISummary{
		ShortSummary: stringOr(f["shortSummary"], DefaultShortSummary),
		Eligibility:  stringList(f["eligibility"]),
		ImportantDates: model.ImportantDates{
			ApplicationStart: ParseDate(dates["applicationStart"]),
			ApplicationEnd:   ParseDate(dates["applicationEnd"]),
			ExamDate:         ParseDate(dates["examDate"]),
			ResultDate:       ParseDate(dates["resultDate"]),
		},
		AgeLimit: model.AgeLimit{
			Min:        age(limit["min"]),
			Max:        age(limit["max"]),
			Relaxation: stringOr(limit["relaxation"], ""),
		},
		Qualification: stringList(f["qualification"]),
		Vacancies: model.Vacancies{
			Total:    count(vac["total"]),
			Category: breakdown(vac["category"]),
		},
		ApplicationFees: model.ApplicationFees{
			General: amount(fees["general"]),
			OBC:     amount(fees["obc"]),
			SCST:    amount(fees["scst"]),
			Female:  amount(fees["female"]),
		},
		SelectionProcess: stringList(f["selectionProcess"]),
		Salary:           stringOr(f["salary"], DefaultSalary),
		HowToApply:       stringOr(f["howToApply"], DefaultHowToApply),
	}
}

// ParseDate interprets v as a calendar date at UTC midnight. Nil, the
// literal "null" and unparsable or out-of-range strings yield nil.
func ParseDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || isNullToken(s) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func isNullToken(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "na", "not specified", "not available":
		return true
	}
	return false
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// stringOr returns v as a trimmed string, or def when v is empty, null or
// not a scalar. Numbers are formatted without exponent.
func stringOr(v any, def string) string {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	}
	if s == "" || isNullToken(s) {
		return def
	}
	return s
}

// stringList returns the non-empty string entries of v. A bare string is a
// one-element list; anything else yields an empty non-nil list.
func stringList(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case string:
		if s := stringOr(x, ""); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range x {
			if s := stringOr(item, ""); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// number coerces JSON numbers and numeric strings. Grouping commas and a
// leading currency sign are tolerated ("Rs. 1,200", "₹500").
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		s := strings.TrimSpace(x)
		for _, prefix := range []string{"Rs.", "Rs", "INR", "₹"} {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// age returns a positive whole age, or nil.
func age(v any) *int {
	f, ok := number(v)
	if !ok || f <= 0 || f > 150 {
		return nil
	}
	n := int(f)
	return &n
}

// count returns a non-negative whole count; invalid values are 0.
func count(v any) int {
	f, ok := number(v)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// amount returns a non-negative fee, or nil when unknown.
func amount(v any) *float64 {
	f, ok := number(v)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

// breakdown seeds every reservation category with 0 and keeps any extra
// codes the model reported.
func breakdown(v any) map[string]int {
	out := make(map[string]int, len(ReservationCategories))
	for _, code := range ReservationCategories {
		out[code] = 0
	}
	for code, n := range object(v) {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		out[code] = count(n)
	}
	return out
}
