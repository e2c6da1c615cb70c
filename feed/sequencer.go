package feed

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/dice-app/dice/model"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SequenceSeparator joins doc_ids in a serialized sequence.
const SequenceSeparator = ", "

// Assignment is the feed of one participant.
type Assignment struct {
	// nil if the dataset has no condition column
	Condition *string
	// ordered by Sequence, ranks form a permutation of 1..len(Posts)
	Posts []*model.PostRecord
	// doc_ids of Posts joined by SequenceSeparator
	Sequence string
}

// Indexed returns the posts keyed by their 0-based display position.
func (a *Assignment) Indexed() map[int]*model.PostRecord {
	return IndexPosts(a.Posts)
}

// Sequencer hands out assignments for the participants of one session.
// Conditions are assigned round robin in the order Assign is called.
type Sequencer struct {
	snapshot *Snapshot
	rnd      *rand.Rand
	next     int
}

func NewSequencer(snapshot *Snapshot, rnd *rand.Rand) *Sequencer {
	return &Sequencer{snapshot: snapshot, rnd: rnd}
}

// Assign builds the feed of the next participant from a private copy of the
// snapshot posts.
func (s *Sequencer) Assign() (*Assignment, error) {
	posts, err := ClonePosts(s.snapshot.Posts)
	if err != nil {
		return nil, err
	}

	var condition *string
	if s.snapshot.Schema.HasCondition && len(s.snapshot.Conditions) > 0 {
		c := s.snapshot.Conditions[s.next%len(s.snapshot.Conditions)]
		s.next++
		condition = &c
		posts = FilterByCondition(posts, condition)
	}

	AssignRanks(posts, s.snapshot.Schema, s.rnd)
	SortBySequence(posts)

	return &Assignment{
		Condition: condition,
		Posts:     posts,
		Sequence:  JoinDocIds(posts),
	}, nil
}

// ClonePosts copies every record so rank assignment never touches the shared
// snapshot. Pointer fields of the copies are replaced, never written through.
func ClonePosts(src []*model.PostRecord) ([]*model.PostRecord, error) {
	dst := make([]*model.PostRecord, len(src))
	for i, p := range src {
		dst[i] = &model.PostRecord{}
		if err := copier.Copy(dst[i], p); err != nil {
			return nil, errors.Wrapf(err, "fail to copy post %s", p.DocId)
		}
	}
	return dst, nil
}

// FilterByCondition keeps the posts of the given condition, all posts if nil.
func FilterByCondition(posts []*model.PostRecord, condition *string) []*model.PostRecord {
	if condition == nil {
		return posts
	}
	filtered := make([]*model.PostRecord, 0, len(posts))
	for _, p := range posts {
		if p.HasCondition(condition) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// AssignRanks gives every post a rank in 1..N. Commented posts are pinned to
// rank 1 and preset ranks are kept, as far as schema enables them. If several
// posts claim the same rank, the first one in row order keeps it and the others
// are unpinned. Unpinned posts receive the remaining ranks in random order.
func AssignRanks(posts []*model.PostRecord, schema Schema, rnd *rand.Rand) {
	n := len(posts)
	claimed := make(map[int]bool, n)

	if !schema.HasPresetSequence {
		for _, p := range posts {
			p.Sequence = nil
		}
	}

	for _, p := range posts {
		if !schema.HasPinning || !p.CommentedPost {
			continue
		}
		if claimed[1] {
			Logger.Log.WithFields(logrus.Fields{"doc_id": p.DocId}).Warn("more than one commented post, unpinning")
			p.Sequence = nil
			continue
		}
		rank := 1
		p.Sequence = &rank
		claimed[1] = true
	}

	for _, p := range posts {
		if (schema.HasPinning && p.CommentedPost) || p.Sequence == nil {
			continue
		}
		rank := *p.Sequence
		if rank < 1 || rank > n || claimed[rank] {
			Logger.Log.WithFields(logrus.Fields{"doc_id": p.DocId, "sequence": rank}).Warn("preset sequence out of range or taken, unpinning")
			p.Sequence = nil
			continue
		}
		claimed[rank] = true
	}

	available := make([]int, 0, n-len(claimed))
	for rank := 1; rank <= n; rank++ {
		if !claimed[rank] {
			available = append(available, rank)
		}
	}
	rnd.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	next := 0
	for _, p := range posts {
		if p.Sequence != nil {
			continue
		}
		rank := available[next]
		next++
		p.Sequence = &rank
	}
}

// SortBySequence orders posts by rank, ties keep row order.
func SortBySequence(posts []*model.PostRecord) {
	sort.SliceStable(posts, func(i, j int) bool {
		return rankOf(posts[i]) < rankOf(posts[j])
	})
}

func rankOf(p *model.PostRecord) int {
	if p.Sequence == nil {
		return 0
	}
	return *p.Sequence
}

func JoinDocIds(posts []*model.PostRecord) string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.DocId
	}
	return strings.Join(ids, SequenceSeparator)
}

// DeriveSequence re-filters the held posts by the confirmed condition and
// serializes them again. With the same filter it reproduces the sequence of the
// original assignment byte for byte.
func DeriveSequence(posts []*model.PostRecord, condition *string) string {
	return JoinDocIds(FilterByCondition(posts, condition))
}

func IndexPosts(posts []*model.PostRecord) map[int]*model.PostRecord {
	indexed := make(map[int]*model.PostRecord, len(posts))
	for i, p := range posts {
		indexed[i] = p
	}
	return indexed
}
