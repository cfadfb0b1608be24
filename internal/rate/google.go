package rate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxBody caps how much of a search page is read.
const maxBody = 4 << 20

// GoogleSource reads the currency converter answer from a search results page.
type GoogleSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewGoogleSource(baseURL string, timeout time.Duration) *GoogleSource {
	return &GoogleSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *GoogleSource) FetchRateText(ctx context.Context, pair domain.CurrencyPair) (string, error) {
	q := url.Values{}
	q.Set("q", pair.Source+" "+pair.Target)
	endpoint := s.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	text, err := visibleText(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return text, nil
}

// visibleText flattens an HTML document to its text nodes, skipping scripts
// and styles. Entities are decoded, so &nbsp; becomes U+00A0.
func visibleText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	hidden := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if isHidden(z) {
				hidden++
			}
		case html.EndTagToken:
			if isHidden(z) && hidden > 0 {
				hidden--
			}
		case html.TextToken:
			if hidden == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style, atom.Noscript:
		return true
	}
	return false
}
