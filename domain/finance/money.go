package finance

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when a monetary string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to cents.
// Accepts both dot and comma as the decimal separator ("12.34", "12,34")
// and thousands grouping when both separators are present ("1.234,56",
// "1,234.56"): the last separator is the decimal mark, the other groups.
// Rejects negative, zero, and malformed values. Amounts carry no sign:
// direction is expressed by the transaction type.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}

	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if whole > maxWhole {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(parts) == 2 {
		f := parts[1]
		if f == "" || len(f) > 2 {
			return 0, ErrInvalidAmount
		}
		if len(f) == 1 {
			f += "0"
		}
		frac, err = strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
	}

	cents := whole*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatAmount formats cents using Brazilian conventions ("R$ 1.234,56").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "R$ " + groupThousands(cents/100) + "," + padCents(cents%100)
}

// groupThousands adds dot separators every three digits.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func padCents(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
