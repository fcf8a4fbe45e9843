package ingest

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads the leading number of a cell such as "1250", "$1,250.50"
// or "99.5 USD". Cells without a leading number are invalid.
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	m := numberPrefix.FindString(sign + s)
	if m == "" {
		return decimal.NullDecimal{}
	}
	m = strings.Replace(m, "-.", "-0.", 1)
	m = strings.Replace(m, "+.", "0.", 1)
	m = strings.TrimPrefix(m, "+")
	if strings.HasPrefix(m, ".") {
		m = "0" + m
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
