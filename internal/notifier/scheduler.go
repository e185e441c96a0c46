package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Scheduler reconciles a habit's registered reminders with its current rule.
// Operations on the same habit ID are serialized; different habits proceed
// concurrently.
type Scheduler struct {
	center Center
	clock  utils.Clock
	loc    *time.Location
	locks  *keyLock

	mu       sync.Mutex
	inflight map[string]map[*flight]struct{}
}

type flight struct {
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used to detect past one-shot dates.
func WithClock(c utils.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the calendar used to extract trigger components.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewScheduler(center Center, opts ...Option) *Scheduler {
	s := &Scheduler{
		center:   center,
		clock:    utils.RealClock{},
		loc:      time.Local,
		locks:    newKeyLock(),
		inflight: make(map[string]map[*flight]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Requests derives the reminders a habit should have registered at now. Past
// one-shot dates and empty weekday sets yield nothing.
func Requests(h models.Habit, now time.Time, loc *time.Location) []models.ScheduledNotification {
	switch rule := h.Rule.(type) {
	case models.OneShotDueDate:
		if rule.Due.Before(now) {
			return nil
		}
		return []models.ScheduledNotification{{
			Key:     models.OneShotKey(h.ID),
			HabitID: h.ID,
			Title:   h.Title,
			Body:    fmt.Sprintf("%s is due", h.Title),
			Trigger: models.DateTriggerAt(rule.Due.In(loc)),
		}}
	case models.RepeatingWeekdays:
		days := rule.Days.Days()
		out := make([]models.ScheduledNotification, 0, len(days))
		for _, wd := range days {
			out = append(out, models.ScheduledNotification{
				Key:     models.WeekdayKey(h.ID, wd),
				HabitID: h.ID,
				Weekday: wd,
				Title:   h.Title,
				Body:    fmt.Sprintf("Time for %s", h.Title),
				Trigger: models.WeeklyTrigger{Weekday: wd, Hour: h.Reminder.Hour, Minute: h.Reminder.Minute},
			})
		}
		return out
	default:
		return nil
	}
}

// Reschedule replaces every reminder registered for the habit with the set
// derived from its current rule. Existing entries are always removed first.
//
// If ctx is cancelled part way (for example because the habit was deleted),
// no further reminders are added, the habit's keys are cancelled again and
// ctx's error is returned.
func (s *Scheduler) Reschedule(ctx context.Context, h models.Habit) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f := s.track(h.ID, cancel)
	defer s.untrack(h.ID, f)

	unlock, err := s.locks.Lock(ctx, h.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.cancelLocked(ctx, h.ID); err != nil {
		return err
	}
	if !h.NotificationEnabled {
		logger.Debug("Reminders disabled, cleared registrations", "habit", h.ID)
		return nil
	}

	requests := Requests(h, s.clock.Now(), s.loc)
	if len(requests) == 0 {
		logger.Debug("Nothing to schedule", "habit", h.ID, "rule", models.FormatRule(h.Rule))
		return nil
	}

	granted, err := s.center.RequestAuthorization(ctx)
	if err != nil {
		return fmt.Errorf("failed to request notification authorization: %w", err)
	}
	if !granted {
		return ErrAuthorizationDenied
	}

	var failures []WeekdayFailure
	for _, req := range requests {
		if ctx.Err() != nil {
			return s.abandon(ctx, h.ID)
		}
		if err := s.center.Add(ctx, req); err != nil {
			if ctx.Err() != nil {
				return s.abandon(ctx, h.ID)
			}
			logger.Warn("Failed to register reminder", "habit", h.ID, "key", req.Key, "error", err)
			failures = append(failures, WeekdayFailure{Weekday: req.Weekday, Key: req.Key, Err: err})
		}
	}
	if ctx.Err() != nil {
		return s.abandon(ctx, h.ID)
	}

	if len(failures) > 0 {
		return &PartialFailureError{HabitID: h.ID, Failures: failures}
	}
	logger.Debug("Rescheduled reminders", "habit", h.ID, "count", len(requests))
	return nil
}

// Cancel stops any in-flight reschedule of the habit and removes the one-shot
// key and all seven weekday keys, whether or not they were registered.
func (s *Scheduler) Cancel(ctx context.Context, habitID string) error {
	s.abort(habitID)

	unlock, err := s.locks.Lock(ctx, habitID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.cancelLocked(ctx, habitID)
}

// abandon clears the habit's keys after a cancelled reschedule, using a
// context that is not itself cancelled.
func (s *Scheduler) abandon(ctx context.Context, habitID string) error {
	if err := s.cancelLocked(context.WithoutCancel(ctx), habitID); err != nil {
		logger.Warn("Failed to clear reminders of cancelled reschedule", "habit", habitID, "error", err)
	}
	return ctx.Err()
}

func (s *Scheduler) cancelLocked(ctx context.Context, habitID string) error {
	keys := models.HabitKeys(habitID)
	var errs []error
	if err := s.center.RemovePending(ctx, keys); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove pending reminders: %w", err))
	}
	if err := s.center.RemoveDelivered(ctx, keys); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove delivered reminders: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) track(habitID string, cancel context.CancelFunc) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &flight{cancel: cancel}
	set, ok := s.inflight[habitID]
	if !ok {
		set = make(map[*flight]struct{})
		s.inflight[habitID] = set
	}
	set[f] = struct{}{}
	return f
}

func (s *Scheduler) untrack(habitID string, f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.inflight[habitID]
	delete(set, f)
	if len(set) == 0 {
		delete(s.inflight, habitID)
	}
}

func (s *Scheduler) abort(habitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for f := range s.inflight[habitID] {
		f.cancel()
	}
}
