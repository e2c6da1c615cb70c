package feed

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/dice-app/dice/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conditionDataset(n int, conditions ...string) *Dataset {
	ds := &Dataset{Columns: []string{"doc_id", "text", "condition"}}
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, map[string]string{
			"doc_id":    strconv.Itoa(i + 1),
			"text":      "post " + strconv.Itoa(i+1),
			"condition": conditions[i%len(conditions)],
		})
	}
	return ds
}

func ranks(posts []*model.PostRecord) []int {
	res := []int{}
	for _, p := range posts {
		res = append(res, *p.Sequence)
	}
	return res
}

func requirePermutation(t *testing.T, posts []*model.PostRecord) {
	t.Helper()
	r := ranks(posts)
	sort.Ints(r)
	for i, v := range r {
		require.Equal(t, i+1, v, "ranks %v are not a permutation", r)
	}
}

func TestSequencerPermutation(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		snapshot := NewSnapshot(conditionDataset(17, "a", "b", "c"), "condition", rnd)
		seq := NewSequencer(snapshot, rnd)
		for i := 0; i < 6; i++ {
			a, err := seq.Assign()
			require.NoError(t, err)
			requirePermutation(t, a.Posts)
			// posts are sorted by rank
			for j, p := range a.Posts {
				assert.Equal(t, j+1, *p.Sequence)
			}
		}
	}
}

func TestSequencerRoundRobin(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	snapshot := NewSnapshot(conditionDataset(6, "control", "treatment"), "condition", rnd)
	assert.Equal(t, []string{"control", "treatment"}, snapshot.Conditions)
	assert.Equal(t, "control, treatment", snapshot.ConditionsString())

	seq := NewSequencer(snapshot, rnd)
	got := []string{}
	for i := 0; i < 5; i++ {
		a, err := seq.Assign()
		require.NoError(t, err)
		require.NotNil(t, a.Condition)
		got = append(got, *a.Condition)
		require.Len(t, a.Posts, 3)
		for _, p := range a.Posts {
			assert.Equal(t, *a.Condition, *p.Condition)
		}
	}
	assert.Equal(t, []string{"control", "treatment", "control", "treatment", "control"}, got)
}

func TestSequencerWithoutCondition(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	snapshot := NewSnapshot(conditionDataset(5, "a", "b"), "", rnd)
	assert.False(t, snapshot.Schema.HasCondition)
	assert.Empty(t, snapshot.Conditions)

	a, err := NewSequencer(snapshot, rnd).Assign()
	require.NoError(t, err)
	assert.Nil(t, a.Condition)
	assert.Len(t, a.Posts, 5)
	requirePermutation(t, a.Posts)
}

func TestSequencerDoesNotMutateSnapshot(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	snapshot := NewSnapshot(conditionDataset(4, "a"), "condition", rnd)
	before, err := ClonePosts(snapshot.Posts)
	require.NoError(t, err)

	seq := NewSequencer(snapshot, rnd)
	a, err := seq.Assign()
	require.NoError(t, err)
	b, err := seq.Assign()
	require.NoError(t, err)

	assert.True(t, cmp.Equal(before, snapshot.Posts))
	for _, p := range snapshot.Posts {
		assert.Nil(t, p.Sequence)
	}
	// each participant holds its own records
	for _, p := range a.Posts {
		for _, q := range b.Posts {
			assert.False(t, p == q)
		}
	}
}

func TestAssignRanksKeepsPinnedRanks(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		ds := &Dataset{
			Columns: []string{"doc_id", "commented_post", "sequence"},
			Rows: []map[string]string{
				{"doc_id": "a", "sequence": ""},
				{"doc_id": "b", "sequence": "4"},
				{"doc_id": "c", "commented_post": "1"},
				{"doc_id": "d", "sequence": ""},
				{"doc_id": "e", "sequence": "2"},
			},
		}
		rnd := rand.New(rand.NewSource(seed))
		a, err := NewSequencer(NewSnapshot(ds, "", rnd), rnd).Assign()
		require.NoError(t, err)
		requirePermutation(t, a.Posts)

		byId := map[string]int{}
		for _, p := range a.Posts {
			byId[p.DocId] = *p.Sequence
		}
		assert.Equal(t, 1, byId["c"])
		assert.Equal(t, 2, byId["e"])
		assert.Equal(t, 4, byId["b"])
		assert.Equal(t, "c", a.Posts[0].DocId)
	}
}

func TestAssignRanksMultiplePinned(t *testing.T) {
	posts := []*model.PostRecord{
		{DocId: "1"},
		{DocId: "2", CommentedPost: true},
		{DocId: "3", CommentedPost: true},
		{DocId: "4"},
	}
	AssignRanks(posts, Schema{HasPinning: true}, rand.New(rand.NewSource(7)))
	requirePermutation(t, posts)
	// first pinned post in row order wins rank 1
	assert.Equal(t, 1, *posts[1].Sequence)
	assert.NotEqual(t, 1, *posts[2].Sequence)
}

func TestAssignRanksDropsInvalidPresets(t *testing.T) {
	seven, two, twoAgain := 7, 2, 2
	posts := []*model.PostRecord{
		{DocId: "1", Sequence: &seven},
		{DocId: "2", Sequence: &two},
		{DocId: "3", Sequence: &twoAgain},
	}
	AssignRanks(posts, Schema{HasPresetSequence: true}, rand.New(rand.NewSource(1)))
	requirePermutation(t, posts)
	assert.Equal(t, 2, *posts[1].Sequence)
}

func TestAssignRanksIgnoresPinsWithoutSchema(t *testing.T) {
	three := 3
	posts := []*model.PostRecord{
		{DocId: "1", Sequence: &three},
		{DocId: "2", CommentedPost: true},
		{DocId: "3"},
	}
	AssignRanks(posts, Schema{}, rand.New(rand.NewSource(1)))
	requirePermutation(t, posts)
}

func TestSortBySequenceStable(t *testing.T) {
	one, two := 1, 2
	posts := []*model.PostRecord{
		{DocId: "x", Sequence: &two},
		{DocId: "y", Sequence: &one},
		{DocId: "z", Sequence: &one},
	}
	SortBySequence(posts)
	assert.Equal(t, "y, z, x", JoinDocIds(posts))
}

func TestDeriveSequence(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	snapshot := NewSnapshot(conditionDataset(9, "a", "b"), "condition", rnd)
	a, err := NewSequencer(snapshot, rnd).Assign()
	require.NoError(t, err)

	first := DeriveSequence(a.Posts, a.Condition)
	second := DeriveSequence(a.Posts, a.Condition)
	assert.Equal(t, a.Sequence, first)
	assert.Equal(t, first, second)

	other := "b"
	assert.Equal(t, "", DeriveSequence(a.Posts, &other))
	assert.Equal(t, a.Sequence, DeriveSequence(a.Posts, nil))
}

func TestAssignmentIndexed(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	a, err := NewSequencer(NewSnapshot(conditionDataset(3, "a"), "", rnd), rnd).Assign()
	require.NoError(t, err)
	indexed := a.Indexed()
	require.Len(t, indexed, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, i+1, *indexed[i].Sequence)
	}
}

func TestAssignEmptySubset(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	snapshot := NewSnapshot(&Dataset{Columns: []string{"doc_id", "condition"}}, "condition", rnd)
	a, err := NewSequencer(snapshot, rnd).Assign()
	require.NoError(t, err)
	assert.Nil(t, a.Condition)
	assert.Empty(t, a.Posts)
	assert.Equal(t, "", a.Sequence)
}
