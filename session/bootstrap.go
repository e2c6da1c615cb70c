package session

import (
	"math/rand"

	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/model"
	"github.com/pkg/errors"
)

// Bootstrap assigns every participant its condition and ordered feed, in the
// order participants are given. The snapshot is only read, each participant
// holds its own copy of the posts.
func Bootstrap(snapshot *feed.Snapshot, participants []*model.Participant, rnd *rand.Rand) error {
	sequencer := feed.NewSequencer(snapshot, rnd)
	for _, p := range participants {
		assignment, err := sequencer.Assign()
		if err != nil {
			return errors.Wrapf(err, "fail to assign feed to participant %s", p.Code)
		}
		p.FeedCondition = assignment.Condition
		p.Sequence = assignment.Sequence
		if err := p.SetPosts(assignment.Posts); err != nil {
			return errors.Wrapf(err, "fail to store feed of participant %s", p.Code)
		}
	}
	return nil
}
