package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
Participant is one player of a session.

Code: random code identifying the participant in urls
Label: optional external label (e.g. a panel id passed by the recruiter)
IdInGroup: 1-based position of the participant within the session
FeedCondition: condition assigned at bootstrap, nil if the dataset has none
Sequence: doc_ids of the assigned posts in display order, joined by ", "
Posts: JSON of the ordered []*PostRecord, cleared after the feed page for
every participant but the first

The remaining fields are telemetry collected on the feed page. They are opaque
to the server and only stored and exported.
*/
type Participant struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	Code          string `gorm:"uniqueIndex"`
	Label         *string
	SessionID     string `gorm:"index"`
	Session       *Session
	IdInGroup     int
	FeedCondition *string
	Sequence      string
	Posts         datatypes.JSON
	Finished      bool

	ScrollSequence     string
	ViewportData       string
	RowheightData      string
	LikesData          string
	RepliesData        string
	PromotedPostClicks string
	TouchCapability    *bool
	DeviceType         string
	ScreenResolution   string
}

// GetPosts decodes the posts held for the participant, nil when cleared.
func (p *Participant) GetPosts() ([]*PostRecord, error) {
	if len(p.Posts) == 0 || string(p.Posts) == "null" {
		return nil, nil
	}
	var posts []*PostRecord
	if err := json.Unmarshal(p.Posts, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Participant) SetPosts(posts []*PostRecord) error {
	if posts == nil {
		p.Posts = datatypes.JSON("null")
		return nil
	}
	bytes, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	p.Posts = datatypes.JSON(bytes)
	return nil
}

// Identity is the id handed to the external survey: label if set, else code.
func (p *Participant) Identity() string {
	if p.Label != nil && *p.Label != "" {
		return *p.Label
	}
	return p.Code
}
