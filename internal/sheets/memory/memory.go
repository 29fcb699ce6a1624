// Package memory is an exporter that keeps rows in process. The export
// worker uses it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetledger/internal/core"
	"budgetledger/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(_ context.Context, n core.Notification) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(n))
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
