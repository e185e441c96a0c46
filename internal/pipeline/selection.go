package pipeline

import (
	"strings"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Selection is the statistics filter: either the "All" sentinel or an
// ordered set of habit IDs. The zero value selects nothing explicitly and
// shows every tracked habit.
type Selection struct {
	all bool
	ids []string
}

// AllSelection returns a selection with only "All" active.
func AllSelection() Selection {
	return Selection{all: true}
}

// NewSelection selects the given IDs. "all" anywhere in ids yields
// AllSelection.
func NewSelection(ids ...string) Selection {
	var s Selection
	for _, id := range ids {
		if id == constants.FilterAllID {
			return AllSelection()
		}
		if id != "" && !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// ParseSelection reads the comma-separated form used by the stats_filter
// setting and the --filter flag.
func ParseSelection(s string) Selection {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return NewSelection(ids...)
}

// IsAll reports whether the "All" sentinel is active.
func (s Selection) IsAll() bool { return s.all }

// IsEmpty reports whether neither All nor any habit is selected.
func (s Selection) IsEmpty() bool { return !s.all && len(s.ids) == 0 }

// IDs returns the individually selected habit IDs in selection order.
func (s Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s Selection) Has(id string) bool {
	if id == constants.FilterAllID {
		return s.all
	}
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle applies one user toggle. available lists the tracked habit IDs and
// max caps the number of individual selections.
//
// Selecting All clears individual selections; toggling an active All clears
// the selection. Selecting beyond max is a no-op. A selection that covers
// every available habit collapses to All.
func (s Selection) Toggle(id string, available []string, max int) Selection {
	if id == constants.FilterAllID {
		if s.all {
			return Selection{}
		}
		return AllSelection()
	}

	if s.Has(id) {
		next := Selection{}
		for _, v := range s.ids {
			if v != id {
				next.ids = append(next.ids, v)
			}
		}
		return next
	}

	if max <= 0 {
		max = constants.DefaultMaxFilterSelected
	}
	if len(s.ids) >= max {
		return s
	}

	next := Selection{ids: append(s.IDs(), id)}
	if coversAll(next.ids, available) {
		return AllSelection()
	}
	return next
}

// Prune drops selected IDs that are no longer tracked.
func (s Selection) Prune(tracked []string) Selection {
	if s.all || len(s.ids) == 0 {
		return s
	}
	keep := make(map[string]struct{}, len(tracked))
	for _, id := range tracked {
		keep[id] = struct{}{}
	}
	next := Selection{}
	for _, id := range s.ids {
		if _, ok := keep[id]; ok {
			next.ids = append(next.ids, id)
		}
	}
	return next
}

// String is the persisted form: "all", "" or comma-separated IDs.
func (s Selection) String() string {
	if s.all {
		return constants.FilterAllID
	}
	return strings.Join(s.ids, ",")
}

func (s Selection) equal(o Selection) bool {
	if s.all != o.all || len(s.ids) != len(o.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

func coversAll(selected, available []string) bool {
	if len(available) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		set[id] = struct{}{}
	}
	for _, id := range available {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Visible filters tracked to the selection, preserving tracked order.
func Visible(tracked []models.Habit, sel Selection) []models.Habit {
	if sel.all || len(sel.ids) == 0 {
		return tracked
	}
	out := make([]models.Habit, 0, len(sel.ids))
	for _, h := range tracked {
		if sel.Has(h.ID) {
			out = append(out, h)
		}
	}
	return out
}

// CatalogOption is one entry of the filter catalog.
type CatalogOption struct {
	ID       string
	Title    string
	Selected bool
}

// Catalog lists the filter choices: All first, then every tracked habit.
func Catalog(tracked []models.Habit, sel Selection) []CatalogOption {
	out := make([]CatalogOption, 0, len(tracked)+1)
	out = append(out, CatalogOption{ID: constants.FilterAllID, Title: "All", Selected: sel.all})
	for _, h := range tracked {
		out = append(out, CatalogOption{ID: h.ID, Title: h.Title, Selected: sel.Has(h.ID)})
	}
	return out
}

func habitIDs(habits []models.Habit) []string {
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return ids
}
