package rate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

//go:generate mockgen -source internal/rate/resolver.go -destination=internal/rate/resolver_mock_test.go -package=rate

// Source returns raw text that contains the rate somewhere inside it.
type Source interface {
	FetchRateText(ctx context.Context, pair domain.CurrencyPair) (string, error)
}

// ratePattern matches an amount with exactly two fractional digits. Accepted
// forms are "65,13", "65.13", "1.234,56", "1 234,56" and "1,234.56". The
// number must not continue a longer one on either side, so "1,234.56" is never
// read as "234.56".
var ratePattern = regexp.MustCompile(
	`(?:^|[^\d.,])(` +
		`\d{1,3}(?:,\d{3})+\.\d{2}` +
		`|\d{1,3}(?:[. \x{00a0}]\d{3})+,\d{2}` +
		`|\d{1,3}(?:[ \x{00a0}]\d{3})+\.\d{2}` +
		`|\d+[,.]\d{2}` +
		`)(?:$|[^\d.,]|[.,](?:$|\D))`,
)

type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve fetches the rate text once and parses it. It does not retry.
func (r *Resolver) Resolve(ctx context.Context, pair domain.CurrencyPair) (decimal.Decimal, error) {
	text, err := r.source.FetchRateText(ctx, pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate source %s: %w", domain.ErrFetch, pair, err)
	}
	rate, err := ParseRate(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", pair, err)
	}
	return rate, nil
}

// ParseRate extracts the first rate after the first "=" in text, or from the
// whole text when there is no "=". The result is always positive.
func ParseRate(text string) (decimal.Decimal, error) {
	if _, after, ok := strings.Cut(text, "="); ok {
		text = after
	}

	m := ratePattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, domain.ErrRateUnavailable
	}

	// The last three bytes are always the decimal separator and two digits.
	num := m[1]
	whole := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, num[:len(num)-3])

	rate, err := decimal.NewFromString(whole + "." + num[len(num)-2:])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", domain.ErrRateUnavailable, num, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %q", domain.ErrRateUnavailable, num)
	}
	return rate, nil
}
