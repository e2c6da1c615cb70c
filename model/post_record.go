package model

import (
	"time"
)

/*
PostRecord is one row of a feed dataset after enrichment, as rendered to a
participant.

DocId: stable identifier of the row, kept verbatim through every transform
Datetime: parsed timestamp, nil if the raw value could not be parsed
Date / FormattedDatetime: display strings derived from Datetime, empty if nil

Text: post body with hashtags, cashtags, mentions and links wrapped in markup
Replies / Reposts / Likes: engagement counters, missing values are 0
Media: media urls with quotes and commas removed
PicAvailable: Media contains "http"

Username / Handle / UserImage / UserDescription / UserFollowers: profile
ProfilePicAvailable: UserImage is itself an url
Icon: first two characters of Username, title cased
ColorClass: one of p1..p8, drawn per row
TooltipHtml: profile hover card markup

Condition: experimental condition of the row, nil if the dataset has none
Sequence: 1-based display rank for one participant, nil until assigned
CommentedPost: pins the row to rank 1

Extra: every other column of the dataset, passed through verbatim
*/
type PostRecord struct {
	DocId             string     `json:"doc_id"`
	Datetime          *time.Time `json:"datetime"`
	Date              string     `json:"date"`
	FormattedDatetime string     `json:"formatted_datetime"`

	Text         string `json:"text"`
	Replies      int    `json:"replies"`
	Reposts      int    `json:"reposts"`
	Likes        int    `json:"likes"`
	Media        string `json:"media"`
	PicAvailable bool   `json:"pic_available"`

	Username            string `json:"username"`
	Handle              string `json:"handle"`
	UserImage           string `json:"user_image"`
	UserDescription     string `json:"user_description"`
	UserFollowers       string `json:"user_followers"`
	ProfilePicAvailable bool   `json:"profile_pic_available"`
	Icon                string `json:"icon"`
	ColorClass          string `json:"color_class"`
	TooltipHtml         string `json:"tooltip_html"`

	Condition     *string `json:"condition,omitempty"`
	Sequence      *int    `json:"sequence,omitempty"`
	CommentedPost bool    `json:"commented_post"`

	Extra map[string]string `json:"extra,omitempty"`
}

// HasCondition returns true iff the record belongs to the given condition. A
// nil condition matches every record.
func (p *PostRecord) HasCondition(condition *string) bool {
	if condition == nil {
		return true
	}
	return p.Condition != nil && *p.Condition == *condition
}
