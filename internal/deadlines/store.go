// Package deadlines holds case deadlines and the scanner that turns upcoming
// ones into notifications.
package deadlines

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
)

var log = logger.Named("deadlines")

// DateLayout is the calendar-day format used for due dates and dedup keys.
const DateLayout = "2006-01-02"

type Deadline struct {
	ID        string `json:"id"`
	CaseID    string `json:"caseId"`
	CaseTitle string `json:"caseTitle,omitempty"`
	Title     string `json:"title"`
	// DueDate is a calendar day in DateLayout.
	DueDate   string    `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
}

type Input struct {
	ID        string
	CaseID    string
	CaseTitle string
	Title     string
	DueDate   string
}

type Store struct {
	kv  kv.Store
	mu  sync.Mutex
	now func() time.Time
}

func NewStore(s kv.Store, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: s, now: now}
}

func (s *Store) load(ctx context.Context) ([]Deadline, error) {
	list, err := kv.ReadList[Deadline](ctx, s.kv, kv.CaseDeadlinesKey)
	if errors.Is(err, kv.ErrCorrupt) {
		log.Warnf("deadline list unreadable, starting empty: %v", err)
		metrics.StorageErrors.WithLabelValues("deadlines").Inc()
		return []Deadline{}, nil
	}
	return list, err
}

func (s *Store) update(ctx context.Context, fn func([]Deadline) ([]Deadline, bool)) error {
	onCorrupt := func(err error) {
		log.Warnf("deadline list unreadable, starting empty: %v", err)
		metrics.StorageErrors.WithLabelValues("deadlines").Inc()
	}
	err := kv.UpdateList(ctx, s.kv, kv.CaseDeadlinesKey, onCorrupt, func(list []Deadline) ([]Deadline, bool, error) {
		next, changed := fn(list)
		return next, changed, nil
	})
	if err != nil {
		return fmt.Errorf("update deadlines: %w", err)
	}
	return nil
}

// Upsert stores a deadline. An Input with a known ID replaces that entry.
func (s *Store) Upsert(ctx context.Context, in Input) (*Deadline, error) {
	if strings.TrimSpace(in.CaseID) == "" {
		return nil, apperr.Invalid("caseId", "case id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Invalid("title", "title is required")
	}
	if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
		return nil, apperr.Invalid("dueDate", "due date must be YYYY-MM-DD")
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	var d Deadline
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.update(ctx, func(list []Deadline) ([]Deadline, bool) {
		d = Deadline{
			ID:        id,
			CaseID:    in.CaseID,
			CaseTitle: in.CaseTitle,
			Title:     strings.TrimSpace(in.Title),
			DueDate:   in.DueDate,
			CreatedAt: s.now().UTC(),
		}
		for i := range list {
			if list[i].ID == d.ID {
				d.CreatedAt = list[i].CreatedAt
				list[i] = d
				return list, true
			}
		}
		return append(list, d), true
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all deadlines ordered by due date.
func (s *Store) List(ctx context.Context) []Deadline {
	list, err := s.load(ctx)
	if err != nil {
		log.Warnf("list: %v", err)
		metrics.StorageErrors.WithLabelValues("deadlines").Inc()
		return []Deadline{}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].DueDate < list[j].DueDate })
	return list
}

// Remove deletes a deadline and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	err := s.update(ctx, func(list []Deadline) ([]Deadline, bool) {
		removed = false
		out := list[:0]
		for _, d := range list {
			if d.ID == id {
				removed = true
				continue
			}
			out = append(out, d)
		}
		return out, removed
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}
