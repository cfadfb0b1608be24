package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeadlineLayout is the delivery date format used in the sheet.
const DeadlineLayout = "02.01.2006"

// Row is one sheet row exactly as fetched. Rows are compared with ==.
type Row struct {
	Index       int64  `json:"index"`
	OrderNumber int64  `json:"order_number"`
	Cost        int64  `json:"cost"`
	Deadline    string `json:"deadline"`
}

// Order is the persisted form of a Row with the derived cost attached.
type Order struct {
	Index       int64               `json:"index"`
	OrderNumber int64               `json:"order_number"`
	Cost        int64               `json:"cost"`
	Deadline    time.Time           `json:"deadline"`
	Converted   decimal.NullDecimal `json:"converted"`
}

type CurrencyPair struct {
	Source string
	Target string
}

func DefaultPair() CurrencyPair {
	return CurrencyPair{Source: "USD", Target: "RUB"}
}

func (p CurrencyPair) String() string {
	return strings.ToUpper(p.Source) + "/" + strings.ToUpper(p.Target)
}

// ParseDeadline parses a sheet date as midnight in loc.
func ParseDeadline(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DeadlineLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse deadline %q: %w", text, err)
	}
	return t, nil
}
