// Package notifier turns habit recurrence rules into reminder registrations
// and keeps them consistent with habit edits.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/models"
)

// Center is the external dispatch collaborator: a keyed store of pending
// reminders that the scheduler can add to and remove from.
type Center interface {
	Add(ctx context.Context, n models.ScheduledNotification) error
	RemovePending(ctx context.Context, keys []string) error
	RemoveDelivered(ctx context.Context, keys []string) error
	RequestAuthorization(ctx context.Context) (bool, error)
}

// ErrAuthorizationDenied is returned when the dispatch layer refuses to
// register reminders. It is never retried automatically.
var ErrAuthorizationDenied = errors.New("notification authorization denied")

// WeekdayFailure is one registration that could not be added.
type WeekdayFailure struct {
	Weekday models.Weekday
	Key     string
	Err     error
}

// PartialFailureError lists the registrations that failed while the rest of
// the habit's reminders were added. Successful registrations are kept;
// rescheduling the habit again is safe.
type PartialFailureError struct {
	HabitID  string
	Failures []WeekdayFailure
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		if f.Weekday.Valid() {
			parts[i] = fmt.Sprintf("%s: %v", f.Weekday, f.Err)
		} else {
			parts[i] = fmt.Sprintf("%s: %v", f.Key, f.Err)
		}
	}
	return fmt.Sprintf("failed to schedule %d reminder(s) for habit %s: %s",
		len(e.Failures), e.HabitID, strings.Join(parts, "; "))
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
