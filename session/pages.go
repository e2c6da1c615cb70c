package session

import (
	"context"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ProlificCompletionBaseUrl = "https://app.prolific.com/submissions/complete"

// Page is one step a participant walks through.
type Page int

const (
	IntroPage Page = iota
	BriefingPage
	FeedPage
	RedirectPage
	DebriefPage
)

var pageNames = map[Page]string{
	IntroPage:    "intro",
	BriefingPage: "briefing",
	FeedPage:     "feed",
	RedirectPage: "redirect",
	DebriefPage:  "debrief",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "unknown"
}

var ErrWrongPage = errors.New("participant is not on this page")

// PageSequence returns the pages shown to participants of a session. The
// redirect page replaces the debrief page iff a survey link is configured.
func PageSequence(setting app_setting.SessionSetting) []Page {
	if len(setting.SurveyLink) > 0 {
		return []Page{IntroPage, BriefingPage, FeedPage, RedirectPage}
	}
	return []Page{IntroPage, BriefingPage, FeedPage, DebriefPage}
}

// Telemetry is what the feed page reports back. All fields are stored as is.
type Telemetry struct {
	ScrollSequence     string `json:"scroll_sequence" form:"scroll_sequence"`
	ViewportData       string `json:"viewport_data" form:"viewport_data"`
	RowheightData      string `json:"rowheight_data" form:"rowheight_data"`
	LikesData          string `json:"likes_data" form:"likes_data"`
	RepliesData        string `json:"replies_data" form:"replies_data"`
	PromotedPostClicks string `json:"promoted_post_clicks" form:"promoted_post_clicks"`
	TouchCapability    *bool  `json:"touch_capability" form:"touch_capability"`
	DeviceType         string `json:"device_type" form:"device_type"`
	ScreenResolution   string `json:"screen_resolution" form:"screen_resolution"`
}

type FeedView struct {
	Posts          map[int]*model.PostRecord   `json:"posts"`
	SearchTerm     string                      `json:"search_term"`
	LabelAvailable bool                        `json:"label_available"`
	TrendingTopics []app_setting.TrendingTopic `json:"trending_topics"`
	DwellThreshold int                         `json:"dwell_threshold"`
	PreloaderDelay int                         `json:"preloader_delay"`
}

type RedirectView struct {
	Link          string `json:"link"`
	RedirectDelay int    `json:"redirect_delay"`
}

type DebriefView struct {
	ParticipantCode string `json:"participant_code"`
	Condition       string `json:"condition"`
}

// CurrentPage returns the page the participant has to see next.
func (s *Service) CurrentPage(ctx context.Context, code string) (Page, error) {
	_, setting, err := s.participant(ctx, code)
	if err != nil {
		return 0, err
	}
	return s.currentPage(ctx, code, setting)
}

// SetLabel stores the external label of a participant. A label set before is
// kept, so only the first visit carrying one counts.
func (s *Service) SetLabel(ctx context.Context, code, label string) error {
	if label == "" {
		return nil
	}
	p, _, err := s.participant(ctx, code)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Model(&model.Participant{}).
		Where("id = ? AND (label IS NULL OR label = '')", p.Id).
		Update("label", label).Error
	if err != nil {
		return errors.Wrapf(err, "fail to store label of participant %s", code)
	}
	return nil
}

func (s *Service) currentPage(ctx context.Context, code string, setting app_setting.SessionSetting) (Page, error) {
	idx, err := s.Progress.GetPageIndex(ctx, code)
	if err != nil {
		return 0, errors.Wrap(err, "fail to read participant progress")
	}
	pages := PageSequence(setting)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pages) {
		idx = len(pages) - 1
	}
	return pages[idx], nil
}

// enter loads the participant and checks it is on the expected page.
func (s *Service) enter(ctx context.Context, code string, expected Page) (*model.Participant, app_setting.SessionSetting, error) {
	p, setting, err := s.participant(ctx, code)
	if err != nil {
		return nil, setting, err
	}
	current, err := s.currentPage(ctx, code, setting)
	if err != nil {
		return nil, setting, err
	}
	if current != expected {
		return nil, setting, errors.Wrapf(ErrWrongPage, "participant %s is on page %s, not %s", code, current, expected)
	}
	return p, setting, nil
}

// advance moves the participant past page, the last page is never left.
func (s *Service) advance(ctx context.Context, code string, page Page, setting app_setting.SessionSetting) error {
	pages := PageSequence(setting)
	for i, p := range pages {
		if p != page {
			continue
		}
		next := i + 1
		if next >= len(pages) {
			next = len(pages) - 1
		}
		if err := s.Progress.SetPageIndex(ctx, code, next); err != nil {
			return errors.Wrap(err, "fail to store participant progress")
		}
		s.Metrics.pageCompleted(page)
		return nil
	}
	return errors.Errorf("page %s is not shown in this session", page)
}

// CompleteIntro confirms the condition of the participant and serializes its
// sequence again from the held posts.
func (s *Service) CompleteIntro(ctx context.Context, code string) error {
	p, setting, err := s.enter(ctx, code, IntroPage)
	if err != nil {
		return err
	}
	posts, err := p.GetPosts()
	if err != nil {
		return errors.Wrapf(err, "fail to decode posts of participant %s", code)
	}
	p.Sequence = feed.DeriveSequence(posts, p.FeedCondition)
	err = s.DB.WithContext(ctx).Model(&model.Participant{}).
		Where("id = ?", p.Id).
		Update("sequence", p.Sequence).Error
	if err != nil {
		return errors.Wrap(err, "fail to update participant sequence")
	}
	return s.advance(ctx, code, IntroPage, setting)
}

func (s *Service) CompleteBriefing(ctx context.Context, code string) error {
	_, setting, err := s.enter(ctx, code, BriefingPage)
	if err != nil {
		return err
	}
	return s.advance(ctx, code, BriefingPage, setting)
}

// FeedView returns everything needed to render the feed of the participant.
func (s *Service) FeedView(ctx context.Context, code string) (*FeedView, error) {
	p, setting, err := s.enter(ctx, code, FeedPage)
	if err != nil {
		return nil, err
	}
	posts, err := p.GetPosts()
	if err != nil {
		return nil, errors.Wrapf(err, "fail to decode posts of participant %s", code)
	}
	topics := setting.TrendingTopics
	if topics == nil {
		topics = []app_setting.TrendingTopic{}
	}
	return &FeedView{
		Posts:          feed.IndexPosts(posts),
		SearchTerm:     setting.SearchTerm,
		LabelAvailable: p.Label != nil,
		TrendingTopics: topics,
		DwellThreshold: setting.DwellThreshold,
		PreloaderDelay: setting.PreloaderDelay,
	}, nil
}

// SubmitFeed stores the telemetry of the feed page and finishes the
// participant. Only the first participant of a session keeps its posts.
func (s *Service) SubmitFeed(ctx context.Context, code string, telemetry Telemetry) error {
	p, setting, err := s.enter(ctx, code, FeedPage)
	if err != nil {
		return err
	}

	p.ScrollSequence = telemetry.ScrollSequence
	p.ViewportData = telemetry.ViewportData
	p.RowheightData = telemetry.RowheightData
	p.LikesData = telemetry.LikesData
	p.RepliesData = telemetry.RepliesData
	p.PromotedPostClicks = telemetry.PromotedPostClicks
	p.TouchCapability = telemetry.TouchCapability
	p.DeviceType = telemetry.DeviceType
	p.ScreenResolution = telemetry.ScreenResolution
	p.Finished = true
	if p.IdInGroup != 1 {
		if err := p.SetPosts(nil); err != nil {
			return err
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		return storeCompletionUrl(tx, p.SessionID)
	})
	if err != nil {
		return errors.Wrapf(err, "fail to store telemetry of participant %s", code)
	}

	Logger.Log.WithFields(logrus.Fields{
		"participant": p.Identity(),
		"session":     p.Session.Code,
	}).Info("participant finished feed")
	return s.advance(ctx, code, FeedPage, setting)
}

// storeCompletionUrl derives the completion url from the session row as read
// inside tx. The row is locked on postgres so concurrent submissions queue up.
func storeCompletionUrl(tx *gorm.DB, sessionID string) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var current model.Session
	if err := q.Where("id = ?", sessionID).First(&current).Error; err != nil {
		return errors.Wrapf(err, "fail to read session %s", sessionID)
	}
	return tx.Model(&model.Session{}).
		Where("id = ?", sessionID).
		Update("prolific_completion_url", ProlificCompletionUrl(&current)).Error
}

// ProlificCompletionUrl is the completion url stored on the session once a
// participant finishes the feed. A session that already carries one gets the
// base url, with the completion code attached if there is one. Otherwise it is
// "NA".
func ProlificCompletionUrl(session *model.Session) string {
	if session.ProlificCompletionUrl == nil {
		return "NA"
	}
	if session.CompletionCode != nil && *session.CompletionCode != "" {
		return ProlificCompletionBaseUrl + "?cc=" + *session.CompletionCode
	}
	return ProlificCompletionBaseUrl
}

// RedirectView returns the survey link of the participant.
func (s *Service) RedirectView(ctx context.Context, code string) (*RedirectView, error) {
	p, setting, err := s.enter(ctx, code, RedirectPage)
	if err != nil {
		return nil, err
	}
	return &RedirectView{
		Link:          BuildRedirect(p, setting, p.Session.CompletionCode),
		RedirectDelay: setting.RedirectDelay,
	}, nil
}

func (s *Service) Debrief(ctx context.Context, code string) (*DebriefView, error) {
	p, _, err := s.enter(ctx, code, DebriefPage)
	if err != nil {
		return nil, err
	}
	return &DebriefView{ParticipantCode: p.Identity(), Condition: utils.StringOrEmpty(p.FeedCondition)}, nil
}
