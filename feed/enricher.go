package feed

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dataset columns consumed by the enricher. ConditionColumn is the name the
// configured condition column is renamed to.
const (
	DocIdColumn           = "doc_id"
	DatetimeColumn        = "datetime"
	TextColumn            = "text"
	RepliesColumn         = "replies"
	RepostsColumn         = "reposts"
	LikesColumn           = "likes"
	MediaColumn           = "media"
	UsernameColumn        = "username"
	HandleColumn          = "handle"
	UserImageColumn       = "user_image"
	UserDescriptionColumn = "user_description"
	UserFollowersColumn   = "user_followers"
	ConditionColumn       = "condition"
	CommentedPostColumn   = "commented_post"
	SequenceColumn        = "sequence"

	// day.month.2-digit-year hour:minute, tried when the flexible parse fails
	FallbackDatetimeLayout  = "2.1.06 15:04"
	FormattedDatetimeLayout = "03:04 PM · Jan 02, 2006"
)

var (
	ColorClasses = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

	knownColumns = []string{
		DocIdColumn, DatetimeColumn, TextColumn, RepliesColumn, RepostsColumn,
		LikesColumn, MediaColumn, UsernameColumn, HandleColumn, UserImageColumn,
		UserDescriptionColumn, UserFollowersColumn, CommentedPostColumn, SequenceColumn,
	}

	urlRegex        = regexp.MustCompile(`^https?://`)
	mediaCleaner    = strings.NewReplacer("'", "", ",", "")
	quoteCleaner    = strings.NewReplacer("'", "", `"`, "")
	followerPrinter = message.NewPrinter(language.German)
	iconTitleCaser  = cases.Title(language.Und)
)

// Enricher turns raw dataset rows into PostRecords. It is deterministic except
// for the color class drawn from rnd.
type Enricher struct {
	// Configured name of the condition column, may be empty.
	ConditionCol string

	rnd *rand.Rand
}

func NewEnricher(conditionCol string, rnd *rand.Rand) *Enricher {
	return &Enricher{ConditionCol: conditionCol, rnd: rnd}
}

// conditionSource returns the column renamed to "condition", empty if none.
func (e *Enricher) conditionSource(ds *Dataset) string {
	if e.ConditionCol != "" && ds.HasColumn(e.ConditionCol) {
		return e.ConditionCol
	}
	return ""
}

// Enrich applies every column transform to every row of ds.
func (e *Enricher) Enrich(ds *Dataset) []*model.PostRecord {
	conditionCol := e.conditionSource(ds)
	hasPinning := ds.HasColumn(CommentedPostColumn)
	hasSequence := ds.HasColumn(SequenceColumn)

	posts := make([]*model.PostRecord, 0, len(ds.Rows))
	undated := 0
	for _, row := range ds.Rows {
		p := &model.PostRecord{DocId: strings.TrimSpace(row[DocIdColumn])}

		if !e.formatDates(p, row[DatetimeColumn]) {
			undated++
		}
		p.Text = HighlightEntities(row[TextColumn])
		p.Replies = CoerceInt(row[RepliesColumn])
		p.Reposts = CoerceInt(row[RepostsColumn])
		p.Likes = CoerceInt(row[LikesColumn])
		p.Media = mediaCleaner.Replace(row[MediaColumn])
		p.PicAvailable = strings.Contains(p.Media, "http")
		e.prepareUserProfile(p, row)

		if conditionCol != "" {
			condition := row[conditionCol]
			p.Condition = &condition
		}
		if hasPinning {
			p.CommentedPost = parseBool(row[CommentedPostColumn])
		}
		if hasSequence {
			p.Sequence = parseOptionalInt(row[SequenceColumn])
		}
		p.Extra = extraColumns(ds.Columns, row, conditionCol)
		posts = append(posts, p)
	}

	if undated > 0 {
		Logger.Log.WithFields(logrus.Fields{"rows": undated}).Warn("feed rows with unparseable datetime")
	}
	return posts
}

// formatDates fills the datetime derived fields, returns false if raw could
// not be parsed by either parser. Such rows keep empty date strings.
func (e *Enricher) formatDates(p *model.PostRecord, raw string) bool {
	t, ok := ParseDatetime(raw)
	if !ok {
		Logger.Log.WithFields(logrus.Fields{"doc_id": p.DocId, "datetime": raw}).Debug("unparseable datetime")
		return false
	}
	p.Datetime = &t
	p.Date = FormatDate(t)
	p.FormattedDatetime = t.Format(FormattedDatetimeLayout)
	return true
}

// ParseDatetime tries a flexible parse first and the fallback layout second.
func ParseDatetime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.Parse(FallbackDatetimeLayout, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatDate renders "<day>. <Mon>" without a leading zero, e.g. "9. Mar".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d. %s", t.Day(), t.Format("Jan"))
}

func (e *Enricher) prepareUserProfile(p *model.PostRecord, row map[string]string) {
	p.Username = row[UsernameColumn]
	p.Handle = row[HandleColumn]
	p.UserImage = row[UserImageColumn]
	p.ProfilePicAvailable = urlRegex.MatchString(p.UserImage)
	p.Icon = Icon(p.Username)
	p.ColorClass = ColorClasses[e.rnd.Intn(len(ColorClasses))]

	p.UserDescription = quoteCleaner.Replace(row[UserDescriptionColumn])
	if p.UserDescription == "" {
		p.UserDescription = " "
	}
	p.UserFollowers = FormatFollowers(row[UserFollowersColumn])
	p.TooltipHtml = TooltipHtml(p)
}

// Icon is the first two characters of username, title cased.
func Icon(username string) string {
	runes := []rune(username)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return iconTitleCaser.String(string(runes))
}

// FormatFollowers renders a follower count with "." as thousands separator.
// Values that are not numbers are returned unchanged.
func FormatFollowers(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	return followerPrinter.Sprintf("%d", int64(math.RoundToEven(f)))
}

func TooltipHtml(p *model.PostRecord) string {
	return "<div class='text-start text-secondary'><b class='text-dark'>" + p.Username + "</b><br>" +
		"@" + p.Handle + "<br><br>" +
		p.UserDescription + " <br><br><b class='text-dark'>" + p.UserFollowers + "</b> Followers</div>"
}

// CoerceInt parses a counter, anything unparseable counts as 0.
func CoerceInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && f == math.Trunc(f) {
		v := int(f)
		return &v
	}
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true
	}
	return false
}

func extraColumns(columns []string, row map[string]string, conditionCol string) map[string]string {
	var extra map[string]string
	for _, c := range columns {
		if c == conditionCol || utils.ContainsString(knownColumns, c) {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[c] = row[c]
	}
	return extra
}
