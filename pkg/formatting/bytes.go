// Package formatting provides human-readable byte size formatting and parsing
// for configuration limits and log output.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

const base = 1024

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n using base-1024 units with the given number of decimals.
// Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	if n < base && n > -base {
		return strconv.FormatInt(n, 10) + " B"
	}

	size := float64(n)
	exp := 0
	for math.Abs(size) >= base && exp < len(units)-1 {
		size /= base
		exp++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes parses sizes such as "10MB", "512 kb", "1.5GiB" or a bare byte
// count. Units are base-1024 and case-insensitive; "K", "M" and the IEC
// "KiB" spellings are accepted as aliases.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})

	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number %q: %w", number, err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, err
	}

	return int64(value * math.Pow(base, float64(exp))), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	u = strings.Replace(u, "IB", "B", 1)

	switch {
	case u == "":
		return 0, nil
	case len(u) == 1 && u != "B":
		u += "B"
	}

	idx := slices.Index(units, u)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}
	return idx, nil
}
