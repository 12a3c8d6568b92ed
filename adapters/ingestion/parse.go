package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a measured result. It accepts thousands separators
// ("1,234", "1.234,5"), comma decimals ("98,7", "0,125"), a trailing percent
// sign and parenthesized negatives. A lone comma followed by exactly three
// digits after a non-zero lead group reads as a thousands separator.
func ParseNumber(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "%"))

	hasComma := strings.Contains(clean, ",")
	hasPeriod := strings.Contains(clean, ".")
	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			// 1.234,56
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case hasComma && thousandsGrouped(clean, ","):
		clean = strings.ReplaceAll(clean, ",", "")
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasPeriod && strings.Count(clean, ".") > 1 && thousandsGrouped(clean, "."):
		// 1.234.567
		clean = strings.ReplaceAll(clean, ".", "")
	}
	clean = strings.ReplaceAll(clean, " ", "")

	if negative {
		clean = "-" + clean
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

// thousandsGrouped reports whether s is a lead group of 1-3 digits, not "0",
// followed only by sep-prefixed groups of exactly three digits
func thousandsGrouped(s, sep string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), sep)
	if len(groups) < 2 {
		return false
	}
	lead := groups[0]
	if len(lead) == 0 || len(lead) > 3 || lead == "0" || !digits(lead) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !digits(g) {
			return false
		}
	}
	return true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseMonths parses a timepoint such as "6", "6M", "T6", "6 months" or "Initial"
func ParseMonths(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, fmt.Errorf("empty timepoint")
	}
	if months, ok := headerMonths(clean); ok {
		return months, nil
	}
	return ParseNumber(clean)
}

// headerMonths recognizes the timepoint spellings used as wide-layout column headers
func headerMonths(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if contains(initialAliases, strings.ToLower(clean)) {
		return 0, true
	}
	m := timeHeaderPattern.FindStringSubmatch(clean)
	if m == nil {
		return 0, false
	}
	months, err := strconv.ParseFloat(m[1], 64)
	return months, err == nil
}
