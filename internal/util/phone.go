package util

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone normalizes to E.164 (+<digits>). Local Turkish numbers
// written as 05XXXXXXXXX or 5XXXXXXXXX get the +90 prefix.
func NormalizePhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("phone is required")
	}

	international := strings.HasPrefix(s, "+") || strings.HasPrefix(s, "00")
	var digits []rune
	for _, r := range s {
		if r == '+' {
			continue
		}
		if unicode.IsDigit(r) {
			digits = append(digits, r)
			continue
		}
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		default:
			return "", fmt.Errorf("phone contains invalid characters")
		}
	}
	d := string(digits)
	switch {
	case strings.HasPrefix(s, "00"):
		d = strings.TrimPrefix(d, "00")
	case !international && len(d) == 11 && strings.HasPrefix(d, "05"):
		d = "90" + d[1:]
	case !international && len(d) == 10 && strings.HasPrefix(d, "5"):
		d = "90" + d
	}
	if len(d) < 8 || len(d) > 15 {
		return "", fmt.Errorf("phone must be in E.164 format")
	}
	return "+" + d, nil
}
