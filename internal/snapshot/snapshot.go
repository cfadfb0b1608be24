// Package snapshot keeps the last sheet contents that were successfully
// mirrored into the store.
package snapshot

import (
	"slices"
	"sync/atomic"

	"github.com/TemirB/sheet-ledger/internal/domain"
)

// Holder is safe for concurrent use. Readers never observe a partially
// replaced snapshot.
type Holder struct {
	rows atomic.Pointer[[]domain.Row]
}

func New() *Holder { return &Holder{} }

// HasChanged reports whether rows differ from the held snapshot, comparing
// position by position. An absent snapshot always counts as changed, even
// against an empty sheet.
func (h *Holder) HasChanged(rows []domain.Row) bool {
	cur := h.rows.Load()
	if cur == nil {
		return true
	}
	return !slices.Equal(*cur, rows)
}

// Replace stores a copy of rows.
func (h *Holder) Replace(rows []domain.Row) {
	cp := make([]domain.Row, len(rows))
	copy(cp, rows)
	h.rows.Store(&cp)
}

// Rows returns a copy of the snapshot and whether one exists.
func (h *Holder) Rows() ([]domain.Row, bool) {
	cur := h.rows.Load()
	if cur == nil {
		return nil, false
	}
	return slices.Clone(*cur), true
}
