package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type reviewMark struct {
	LeadID     string
	ReviewedBy string
}

// ReviewStore persists reviewed-lead marks in a two-column CSV
// (lead_id, reviewed_by). Writes rewrite the whole file, so the store
// serializes access with a mutex.
type ReviewStore struct {
	path string
	mu   sync.Mutex
}

func NewReviewStore(path string) *ReviewStore {
	return &ReviewStore{path: path}
}

// All returns the current marks as lead_id -> reviewed_by. A missing
// file is an empty store.
func (s *ReviewStore) All() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(marks))
	for _, m := range marks {
		out[m.LeadID] = m.ReviewedBy
	}
	return out, nil
}

// Mark sets the reviewer on every given lead: existing marks are
// updated in place, new leads appended.
func (s *ReviewStore) Mark(leadIDs []string, reviewer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.read()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(marks))
	for i, m := range marks {
		index[m.LeadID] = i
	}

	for _, id := range leadIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if i, ok := index[id]; ok {
			marks[i].ReviewedBy = reviewer
			continue
		}
		index[id] = len(marks)
		marks = append(marks, reviewMark{LeadID: id, ReviewedBy: reviewer})
	}
	return s.write(marks)
}

// Reset drops every mark, leaving only the header row.
func (s *ReviewStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

func (s *ReviewStore) read() ([]reviewMark, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read review store: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	idCol, byCol := 0, 1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lead_id":
			idCol = i
		case "reviewed_by":
			byCol = i
		}
	}

	var marks []reviewMark
	for _, rec := range records[1:] {
		if idCol >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			continue
		}
		by := ""
		if byCol < len(rec) {
			by = rec[byCol]
		}
		marks = append(marks, reviewMark{LeadID: id, ReviewedBy: by})
	}
	return marks, nil
}

func (s *ReviewStore) write(marks []reviewMark) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"lead_id", "reviewed_by"}); err != nil {
		return err
	}
	for _, m := range marks {
		if err := w.Write([]string{m.LeadID, m.ReviewedBy}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(s.path, buf.Bytes(), 0o644)
}
