// Package memory is an in-process sheets.Writer for local runs and tests.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// Sheet keeps the last rows written to each tab.
type Sheet struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	updates int
	err     error
}

func New() *Sheet {
	return &Sheet{tabs: map[string][][]any{}}
}

// FailWith makes every subsequent call return err. Nil restores normal operation.
func (s *Sheet) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Clear empties rng. A bare tab name or a range starting on row 1 drops
// the tab; "Tab!A5:Z" keeps rows 1-4.
func (s *Sheet) Clear(_ context.Context, rng string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	tab, row := parseRange(rng)
	if row <= 1 {
		delete(s.tabs, tab)
		return nil
	}
	if rows := s.tabs[tab]; len(rows) >= row {
		s.tabs[tab] = rows[:row-1]
	}
	return nil
}

// Update overwrites rows starting at the row rng names, keeping any rows
// below them.
func (s *Sheet) Update(_ context.Context, rng string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	tab, row := parseRange(rng)
	existing := s.tabs[tab]
	for len(existing) < row-1+len(rows) {
		existing = append(existing, nil)
	}
	for i, r := range rows {
		existing[row-1+i] = append([]any(nil), r...)
	}
	s.tabs[tab] = existing
	s.updates++
	return nil
}

// Rows returns what was last written to tab.
func (s *Sheet) Rows(tab string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs[tab]
}

// Updates counts successful Update calls.
func (s *Sheet) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// parseRange splits "Tab!B3:Z" into the tab and its first row.
func parseRange(rng string) (tab string, row int) {
	i := strings.IndexByte(rng, '!')
	if i < 0 {
		return rng, 1
	}
	tab = rng[:i]
	cell := strings.TrimLeft(rng[i+1:], "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if j := strings.IndexByte(cell, ':'); j >= 0 {
		cell = cell[:j]
	}
	row, err := strconv.Atoi(cell)
	if err != nil || row < 1 {
		return tab, 1
	}
	return tab, row
}
