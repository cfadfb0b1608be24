package sheet

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

//go:generate mockgen -source internal/sheet/sheet.go -destination=internal/sheet/sheet_mock_test.go -package=sheet

var idPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ValuesReader reads a rectangular range of formatted cell values.
type ValuesReader interface {
	Values(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error)
}

type Client struct {
	reader        ValuesReader
	spreadsheetID string
}

func NewClient(reader ValuesReader, spreadsheetID string) *Client {
	return &Client{reader: reader, spreadsheetID: spreadsheetID}
}

// FetchRows reads rangeStart:rangeEnd of the first sheet. A row that cannot be
// parsed fails the whole fetch.
func (c *Client) FetchRows(ctx context.Context, rangeStart, rangeEnd string) ([]domain.Row, error) {
	values, err := c.reader.Values(ctx, c.spreadsheetID, rangeStart+":"+rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %w", domain.ErrFetch, c.spreadsheetID, err)
	}
	return ParseRows(values)
}

// ParseRows converts raw cells into rows. Fully empty rows are skipped.
func ParseRows(values [][]any) ([]domain.Row, error) {
	rows := make([]domain.Row, 0, len(values))
	for i, raw := range values {
		cells := make([]string, len(raw))
		empty := true
		for j, v := range raw {
			cells[j] = strings.TrimSpace(fmt.Sprint(v))
			if cells[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		row, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("%w: range row %d: %w", domain.ErrFetch, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(cells []string) (domain.Row, error) {
	if len(cells) < 4 {
		return domain.Row{}, fmt.Errorf("expected 4 cells, got %d", len(cells))
	}

	index, err := parseInt(cells[0])
	if err != nil {
		return domain.Row{}, fmt.Errorf("index: %w", err)
	}
	number, err := parseInt(cells[1])
	if err != nil {
		return domain.Row{}, fmt.Errorf("order number: %w", err)
	}
	cost, err := parseInt(cells[2])
	if err != nil {
		return domain.Row{}, fmt.Errorf("cost: %w", err)
	}
	if cost < 0 {
		return domain.Row{}, fmt.Errorf("cost: negative value %d", cost)
	}
	if _, err := domain.ParseDeadline(cells[3], time.UTC); err != nil {
		return domain.Row{}, err
	}

	return domain.Row{
		Index:       index,
		OrderNumber: number,
		Cost:        cost,
		Deadline:    cells[3],
	}, nil
}

var digitGroups = strings.NewReplacer(" ", "", "\u00a0", "")

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(digitGroups.Replace(s), 10, 64)
}

// SpreadsheetID accepts a docs.google.com spreadsheet URL or a bare id.
func SpreadsheetID(urlOrID string) string {
	if m := idPattern.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	return strings.TrimSpace(urlOrID)
}

// API reads values through the Sheets v4 REST API.
type API struct {
	svc *sheets.Service
}

// NewAPI authenticates with a service account credentials file. Calls are
// bounded by the context passed to Values.
func NewAPI(ctx context.Context, credentialsFile string) (*API, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &API{svc: svc}, nil
}

func (a *API) Values(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
