package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint returns a recovery suggestion for errors the user can fix, or "".
func Hint(err error) string {
	var partial *notifier.PartialFailureError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, notifier.ErrAuthorizationDenied):
		return "Enable notifications with `habitlit settings set notifications_enabled true`, then run `habitlit habit edit <id>` to reschedule."
	case errors.As(err, &partial):
		return fmt.Sprintf("Reminders are safe to retry: run `habitlit habit edit %s`.", partial.HabitID)
	case errors.Is(err, postgres.ErrEmbeddedCredentials):
		return "Store the connection string with `habitlit keyring set`, or drop the password and use .pgpass or PGPASSWORD."
	default:
		return ""
	}
}

// Warn reports a recoverable error on stderr without exiting
func Warn(err error) {
	if err == nil {
		return
	}
	logger.Warn("Recoverable error", "error", err)
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "%s\n", hint)
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		if hint := Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", hint)
		}
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
