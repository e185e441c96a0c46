package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// NewHabitForm creates a new form for adding weekday habits
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Weekdays").
				Description("Comma-separated (mon,wed,fri); empty for none").
				Value(&fm.Days).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := models.ParseWeekdays(s)
					return err
				}),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Value(&fm.Time).
				Validate(func(s string) error {
					if _, err := utils.ParseTimeOfDay(s); err != nil {
						return fmt.Errorf("invalid time format, use HH:MM")
					}
					return nil
				}),
			huh.NewSelect[models.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("Urgent & important", models.PriorityUrgentImportant),
					huh.NewOption("Important", models.PriorityImportant),
					huh.NewOption("Urgent", models.PriorityUrgent),
					huh.NewOption("Neither", models.PriorityNeither),
				).
				Value(&fm.Priority),
			huh.NewConfirm().
				Title("Remind me").
				Value(&fm.Notify),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewConfirmForm asks a yes/no question
func NewConfirmForm(title, description string, fm *ConfirmFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&fm.Confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}
