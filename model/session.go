package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
Session is one run of the experiment, all participants of a session share the
same loaded and enriched dataset.

Id: primary key
Code: short random code shown to admins and used in export
ConfigName: name of the session setting this session was created from
Setting: JSON snapshot of the resolved session setting
FeedConditions: distinct conditions of the dataset, joined by ", "
CompletionCode: session level completion code handed to the survey
ProlificCompletionUrl: set when a participant completes the feed page
Participants: "has-many" relation
*/
type Session struct {
	Id                    string `gorm:"primaryKey"`
	CreatedAt             time.Time
	DeletedAt             gorm.DeletedAt
	Code                  string `gorm:"uniqueIndex"`
	ConfigName            string
	Setting               datatypes.JSON
	FeedConditions        string
	CompletionCode        *string
	ProlificCompletionUrl *string
	Participants          []*Participant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
