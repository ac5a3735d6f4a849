package util

import (
	"fmt"
	"math/big"
	"strings"
)

// NormalizeIBAN strips spaces, upper-cases and verifies the ISO 13616 mod-97
// checksum. Turkish IBANs must be 26 characters long.
func NormalizeIBAN(raw string) (string, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return "", fmt.Errorf("iban length is invalid")
	}
	if strings.HasPrefix(s, "TR") && len(s) != 26 {
		return "", fmt.Errorf("turkish iban must be 26 characters")
	}
	for i, r := range s {
		isLetter := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		if i < 2 && !isLetter || i >= 2 && i < 4 && !isDigit || !isLetter && !isDigit {
			return "", fmt.Errorf("iban contains invalid characters")
		}
	}

	rearranged := s[4:] + s[:4]
	var b strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			fmt.Fprintf(&b, "%d", r-'A'+10)
			continue
		}
		b.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(b.String(), 10)
	if !ok {
		return "", fmt.Errorf("iban contains invalid characters")
	}
	if new(big.Int).Mod(n, big.NewInt(97)).Int64() != 1 {
		return "", fmt.Errorf("iban checksum mismatch")
	}
	return s, nil
}
