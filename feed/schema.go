package feed

import (
	"context"
	"math/rand"
	"strings"

	"github.com/dice-app/dice/model"
)

// Schema describes which optional features a dataset enables. It is detected
// once per dataset and consumed by the Sequencer.
type Schema struct {
	// The configured condition column exists, posts are partitioned by it.
	HasCondition bool
	// A commented_post column exists, flagged posts are pinned to rank 1.
	HasPinning bool
	// A sequence column exists, its values are kept as pinned ranks.
	HasPresetSequence bool
}

func DetectSchema(ds *Dataset, conditionCol string) Schema {
	return Schema{
		HasCondition:      conditionCol != "" && ds.HasColumn(conditionCol),
		HasPinning:        ds.HasColumn(CommentedPostColumn),
		HasPresetSequence: ds.HasColumn(SequenceColumn),
	}
}

// Snapshot is the loaded and enriched dataset of one session. It is shared
// read-only by every participant of the session.
type Snapshot struct {
	Posts  []*model.PostRecord
	Schema Schema
	// Distinct conditions in order of first appearance, empty without
	// condition column.
	Conditions []string
}

func NewSnapshot(ds *Dataset, conditionCol string, rnd *rand.Rand) *Snapshot {
	schema := DetectSchema(ds, conditionCol)
	posts := NewEnricher(conditionCol, rnd).Enrich(ds)
	return &Snapshot{
		Posts:      posts,
		Schema:     schema,
		Conditions: distinctConditions(posts),
	}
}

// Prepare loads the dataset at path and enriches it.
func Prepare(ctx context.Context, loader *Loader, path, delim, conditionCol string, rnd *rand.Rand) (*Snapshot, error) {
	ds, err := loader.Load(ctx, path, delim)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(ds, conditionCol, rnd), nil
}

// ConditionsString joins the distinct conditions with ", ".
func (s *Snapshot) ConditionsString() string {
	return strings.Join(s.Conditions, ", ")
}

func distinctConditions(posts []*model.PostRecord) []string {
	seen := map[string]bool{}
	conditions := []string{}
	for _, p := range posts {
		if p.Condition == nil || seen[*p.Condition] {
			continue
		}
		seen[*p.Condition] = true
		conditions = append(conditions, *p.Condition)
	}
	return conditions
}
