package pipeline

import (
	"reflect"
	"testing"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

func TestSelectionToggle(t *testing.T) {
	available := []string{"a", "b", "c", "d", "e", "f"}

	tests := []struct {
		name    string
		start   Selection
		toggle  string
		wantAll bool
		wantIDs []string
	}{
		{"select all from empty", Selection{}, constants.FilterAllID, true, []string{}},
		{"toggle active all clears", AllSelection(), constants.FilterAllID, false, []string{}},
		{"all clears individuals", NewSelection("a", "b"), constants.FilterAllID, true, []string{}},
		{"individual replaces all", AllSelection(), "c", false, []string{"c"}},
		{"append", NewSelection("a"), "b", false, []string{"a", "b"}},
		{"deselect", NewSelection("a", "b"), "a", false, []string{"b"}},
		{"cap is a no-op", NewSelection("a", "b", "c", "d"), "e", false, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Toggle(tt.toggle, available, 4)
			if got.IsAll() != tt.wantAll {
				t.Errorf("IsAll() = %v, want %v", got.IsAll(), tt.wantAll)
			}
			if !reflect.DeepEqual(got.IDs(), tt.wantIDs) {
				t.Errorf("IDs() = %v, want %v", got.IDs(), tt.wantIDs)
			}
		})
	}
}

func TestSelectionCollapsesToAll(t *testing.T) {
	available := []string{"a", "b", "c"}
	sel := NewSelection("a", "b").Toggle("c", available, 4)
	if !sel.IsAll() {
		t.Fatalf("expected selection of every habit to collapse to All, got %v", sel)
	}
	if len(sel.IDs()) != 0 {
		t.Errorf("expected no individual IDs after collapse, got %v", sel.IDs())
	}
}

func TestSelectionNeverExceedsMax(t *testing.T) {
	available := []string{"a", "b", "c", "d", "e", "f", "g"}
	sel := Selection{}
	for _, id := range available {
		sel = sel.Toggle(id, available, 4)
		if n := len(sel.IDs()); n > 4 {
			t.Fatalf("selection grew to %d entries", n)
		}
	}
}

func TestSelectionPrune(t *testing.T) {
	sel := NewSelection("a", "gone", "c").Prune([]string{"a", "b", "c"})
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Prune() = %v", got)
	}
	if !AllSelection().Prune(nil).IsAll() {
		t.Error("Prune() must keep All")
	}
}

func TestParseSelection(t *testing.T) {
	if !ParseSelection("all").IsAll() {
		t.Error("expected all")
	}
	if !ParseSelection("").IsEmpty() {
		t.Error("expected empty selection")
	}
	sel := ParseSelection(" a, b ,a,")
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ParseSelection() = %v", got)
	}
	if sel.String() != "a,b" {
		t.Errorf("String() = %q", sel.String())
	}
}

func TestVisible(t *testing.T) {
	tracked := []models.Habit{{ID: "h1"}, {ID: "h2"}, {ID: "h3"}}

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"empty shows all", Selection{}, []string{"h1", "h2", "h3"}},
		{"all shows all", AllSelection(), []string{"h1", "h2", "h3"}},
		{"tracked order kept", NewSelection("h3", "h1"), []string{"h1", "h3"}},
		{"unknown ids ignored", NewSelection("h2", "x"), []string{"h2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := habitIDs(Visible(tracked, tt.sel)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	tracked := []models.Habit{{ID: "h1", Title: "Read"}, {ID: "h2", Title: "Run"}}
	opts := Catalog(tracked, NewSelection("h2"))
	if len(opts) != 3 || opts[0].ID != constants.FilterAllID {
		t.Fatalf("expected All first, got %+v", opts)
	}
	if opts[0].Selected || opts[1].Selected || !opts[2].Selected {
		t.Errorf("unexpected selection flags %+v", opts)
	}
}
