package resolve

import (
	"testing"

	"github.com/weft-labs/weft/backend/pkg/common"
)

func rowWithTypes(types ...string) common.LabelResult {
	return common.LabelResult{
		Matches: map[common.EntityID]common.LabelMatch{
			"Q1": {Label: "x", InstanceTypes: types},
		},
		Order: []common.EntityID{"Q1"},
	}
}

func TestScoreTypes_CountsOncePerRow(t *testing.T) {
	rows := []common.LabelResult{
		rowWithTypes("A", "B"),
		rowWithTypes("A"),
		rowWithTypes("B"),
	}

	scores, primary := ScoreTypes(rows)
	if scores["A"] != 67 || scores["B"] != 67 {
		t.Fatalf("expected both types at 67%%, got %v", scores)
	}
	if len(primary) != 2 || primary[0] != "A" || primary[1] != "B" {
		t.Fatalf("expected tied primary types kept, got %v", primary)
	}
}

func TestScoreTypes_DuplicateCandidatesDoNotInflate(t *testing.T) {
	// One row whose two candidates share a type must count that type once.
	row := common.LabelResult{
		Matches: map[common.EntityID]common.LabelMatch{
			"Q1": {InstanceTypes: []string{"city"}},
			"Q2": {InstanceTypes: []string{"city", "band"}},
		},
		Order: []common.EntityID{"Q1", "Q2"},
	}
	other := rowWithTypes("band")

	scores, primary := ScoreTypes([]common.LabelResult{row, other})
	if scores["city"] != 50 {
		t.Fatalf("expected city at 50%%, got %d", scores["city"])
	}
	if scores["band"] != 100 {
		t.Fatalf("expected band at 100%%, got %d", scores["band"])
	}
	if len(primary) != 1 || primary[0] != "band" {
		t.Fatalf("expected band primary, got %v", primary)
	}
}

func TestScoreTypes_RowsWithoutCandidatesExcluded(t *testing.T) {
	rows := []common.LabelResult{
		rowWithTypes("city"),
		{Matches: map[common.EntityID]common.LabelMatch{}},
	}

	scores, primary := ScoreTypes(rows)
	if scores["city"] != 100 {
		t.Fatalf("empty rows must not dilute the percentage, got %v", scores)
	}
	if len(primary) != 1 || primary[0] != "city" {
		t.Fatalf("unexpected primary types: %v", primary)
	}
}

func TestScoreTypes_NoCandidatesAtAll(t *testing.T) {
	scores, primary := ScoreTypes([]common.LabelResult{{}})
	if len(scores) != 0 || primary != nil {
		t.Fatalf("expected empty outcome, got %v %v", scores, primary)
	}
}

func TestResolveCandidate(t *testing.T) {
	row := common.LabelResult{
		Matches: map[common.EntityID]common.LabelMatch{
			"Q1": {Label: "Paris (band)", InstanceTypes: []string{"band"}},
			"Q2": {Label: "Paris", InstanceTypes: []string{"city", "commune of France"}},
		},
		Order: []common.EntityID{"Q1", "Q2"},
	}

	tests := []struct {
		name     string
		selected []string
		wantID   common.EntityID
		wantOK   bool
	}{
		{name: "no filter takes first candidate", selected: nil, wantID: "Q1", wantOK: true},
		{name: "filter picks first intersecting", selected: []string{"city"}, wantID: "Q2", wantOK: true},
		{name: "filter with no intersection leaves unresolved", selected: []string{"river"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _, ok := resolveCandidate(row, tt.selected)
			if ok != tt.wantOK || id != tt.wantID {
				t.Fatalf("got (%s, %v), want (%s, %v)", id, ok, tt.wantID, tt.wantOK)
			}

			// Same selection, same outcome.
			again, _, okAgain := resolveCandidate(row, tt.selected)
			if again != id || okAgain != ok {
				t.Fatal("resolution is not deterministic")
			}
		})
	}
}

func TestResolveCandidate_EmptyRow(t *testing.T) {
	if _, _, ok := resolveCandidate(common.LabelResult{}, nil); ok {
		t.Fatal("empty candidate set must not resolve")
	}
}
