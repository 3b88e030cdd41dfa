package deadlines

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
)

const DefaultLookaheadDays = 7

type Notifier interface {
	Create(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

// Scanner raises one deadline notification per (case, due date) pair that
// falls between today and the lookahead horizon. Overdue deadlines are
// ignored.
type Scanner struct {
	deadlines *Store
	kv        kv.Store
	notifier  Notifier
	now       func() time.Time
	loc       *time.Location
	lookahead int

	// mu keeps overlapping Scan calls on one instance from interleaving.
	mu sync.Mutex
}

type ScannerOption func(*Scanner)

func WithClock(now func() time.Time) ScannerOption { return func(s *Scanner) { s.now = now } }

func WithLocation(loc *time.Location) ScannerOption { return func(s *Scanner) { s.loc = loc } }

func WithLookahead(days int) ScannerOption {
	return func(s *Scanner) {
		if days >= 0 {
			s.lookahead = days
		}
	}
}

func NewScanner(deadlines *Store, store kv.Store, notifier Notifier, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		deadlines: deadlines,
		kv:        store,
		notifier:  notifier,
		now:       time.Now,
		loc:       time.UTC,
		lookahead: DefaultLookaheadDays,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func dedupKey(caseID, due string) string { return caseID + "|" + due }

func (s *Scanner) today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

type dueDeadline struct {
	deadline Deadline
	days     int
	key      string
}

// upcoming lists deadlines due between today and the lookahead horizon.
func (s *Scanner) upcoming(ctx context.Context, today time.Time) []dueDeadline {
	var out []dueDeadline
	for _, d := range s.deadlines.List(ctx) {
		due, err := time.ParseInLocation(DateLayout, d.DueDate, s.loc)
		if err != nil {
			continue
		}
		days := int(math.Round(due.Sub(today).Hours() / 24))
		if days < 0 || days > s.lookahead {
			continue
		}
		out = append(out, dueDeadline{deadline: d, days: days, key: dedupKey(d.CaseID, d.DueDate)})
	}
	return out
}

func (s *Scanner) updateSent(ctx context.Context, fn func([]string) ([]string, bool)) error {
	onCorrupt := func(err error) {
		log.Warnf("dedup set unreadable, starting empty: %v", err)
		metrics.StorageErrors.WithLabelValues("deadlines").Inc()
	}
	return kv.UpdateList(ctx, s.kv, kv.DeadlineNotifiedKey, onCorrupt, func(sent []string) ([]string, bool, error) {
		next, changed := fn(sent)
		return next, changed, nil
	})
}

// Scan runs one pass and returns the number of notifications created.
// Dedup keys are claimed in the shared set before any notification is
// sent, so overlapping scans, here or on another instance, notify each
// (case, due date) pair once. A claim whose notification fails is released
// for the next pass.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	todayKey := today.Format(DateLayout)
	candidates := s.upcoming(ctx, today)

	var claimed []dueDeadline
	err := s.updateSent(ctx, func(sent []string) ([]string, bool) {
		claimed = claimed[:0]
		seen := make(map[string]bool, len(sent))
		kept := make([]string, 0, len(sent))
		for _, k := range sent {
			// drop keys whose due date has passed
			if i := strings.LastIndex(k, "|"); i >= 0 && k[i+1:] < todayKey {
				continue
			}
			seen[k] = true
			kept = append(kept, k)
		}
		pruned := len(kept) != len(sent)
		for _, c := range candidates {
			if seen[c.key] {
				continue
			}
			seen[c.key] = true
			kept = append(kept, c.key)
			claimed = append(claimed, c)
		}
		return kept, pruned || len(claimed) > 0
	})
	if err != nil {
		return 0, fmt.Errorf("claim dedup keys: %w", err)
	}

	created := 0
	failed := make(map[string]bool)
	for _, c := range claimed {
		if _, err := s.notifier.Create(ctx, notificationFor(c.deadline, c.days)); err != nil {
			log.Warnf("notify deadline %s: %v", c.deadline.ID, err)
			failed[c.key] = true
			continue
		}
		created++
	}

	if len(failed) > 0 {
		err := s.updateSent(ctx, func(sent []string) ([]string, bool) {
			out := sent[:0]
			for _, k := range sent {
				if !failed[k] {
					out = append(out, k)
				}
			}
			return out, len(out) != len(sent)
		})
		if err != nil {
			return created, fmt.Errorf("release dedup keys: %w", err)
		}
	}
	metrics.DeadlineScans.Inc()
	return created, nil
}

func notificationFor(d Deadline, days int) notifications.Input {
	var when string
	sev := notifications.SeverityInfo
	switch {
	case days == 0:
		when = "today"
		sev = notifications.SeverityError
	case days == 1:
		when = "tomorrow"
		sev = notifications.SeverityWarning
	default:
		when = fmt.Sprintf("in %d days", days)
		if days <= 3 {
			sev = notifications.SeverityWarning
		}
	}
	subject := d.CaseTitle
	if subject == "" {
		subject = d.CaseID
	}
	return notifications.Input{
		Title:         "Deadline " + when,
		Message:       fmt.Sprintf("%s for %s is due %s", d.Title, subject, when),
		Kind:          notifications.KindDeadline,
		Severity:      sev,
		RelatedCaseID: d.CaseID,
		Link:          "/cases/" + d.CaseID,
	}
}

// Run scans once immediately and then every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	scan := func() {
		if n, err := s.Scan(ctx); err != nil {
			log.Errorf("scan: %v", err)
		} else if n > 0 {
			log.Infof("scan created %d deadline notifications", n)
		}
	}
	scan()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scan()
		}
	}
}
