package session

import (
	"context"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testCsv = `doc_id,datetime,text,replies,reposts,likes,media,username,handle,user_image,user_description,user_followers,group,commented_post
1,2023-03-09 14:05:00,hello #dice,1,2,3,,Jane Doe,jane,https://img/j.png,likes "feeds",1234567,control,1
2,2023-03-09 15:05:00,see https://x.com/a,,,,'http://img/a.png',Bob,bob,,,12,treatment,0
3,25.12.23 18:30,third,0,0,0,,Carl,carl,,,0,control,0
4,not a date,fourth,0,0,0,,Dana,dana,,,5,treatment,0
`

func newTestService(t *testing.T, surveyLink string) *Service {
	t.Helper()
	db, _ := utils.CreateTempDB(t)
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte(testCsv), 0o644))

	settings := app_setting.SessionSettings{
		Defaults: app_setting.SessionSetting{SearchTerm: "dice"},
		Configs: []app_setting.SessionSetting{
			{
				Name:                "feed",
				DataPath:            path,
				ConditionCol:        "group",
				SurveyLink:          surveyLink,
				CompletionCode:      "ABCDEF",
				NumDemoParticipants: 3,
				TrendingTopics:      []app_setting.TrendingTopic{{Label: "#dice", Count: "12K"}},
			},
			{
				Name:     "remote",
				DataPath: "https://example.com/feed.csv",
			},
		},
	}
	s := NewService(db, utils.NewMemoryProgressStore(), feed.NewDefaultLoader(), settings).
		WithRand(rand.New(rand.NewSource(7)))
	s.Metrics = NewMetrics(prometheus.NewRegistry())
	return s
}

func TestCreateSession(t *testing.T) {
	s := newTestService(t, "https://x.test/s")
	ctx := context.Background()

	created, err := s.CreateSession(ctx, "feed", 0)
	require.NoError(t, err)
	assert.Len(t, created.Code, SessionCodeLength)
	assert.Equal(t, "control, treatment", created.FeedConditions)
	assert.Equal(t, "ABCDEF", *created.CompletionCode)
	assert.Nil(t, created.ProlificCompletionUrl)
	assert.Equal(t, float64(1), testutil.ToFloat64(s.Metrics.sessionsCreated.WithLabelValues("feed")))

	stored, err := s.GetSession(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 3)
	for i, p := range stored.Participants {
		assert.Equal(t, i+1, p.IdInGroup)
		posts, err := p.GetPosts()
		require.NoError(t, err)
		assert.Len(t, posts, 2)
		assert.Equal(t, feed.JoinDocIds(posts), p.Sequence)
	}
	assert.Equal(t, "control", *stored.Participants[0].FeedCondition)
	assert.Equal(t, "treatment", *stored.Participants[1].FeedCondition)
	assert.Equal(t, "control", *stored.Participants[2].FeedCondition)
	// the commented post of the control condition is pinned first
	assert.Equal(t, "1, 3", stored.Participants[0].Sequence)
}

func TestCreateSessionFailsWithoutPersisting(t *testing.T) {
	s := newTestService(t, "")
	ctx := context.Background()

	_, err := s.CreateSession(ctx, "remote", 2)
	require.Error(t, err)
	var unrecognized *feed.UnrecognizedSourceError
	assert.True(t, errors.As(err, &unrecognized))

	var count int64
	require.NoError(t, s.DB.Model(&model.Session{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, s.DB.Model(&model.Participant{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, err = s.CreateSession(ctx, "unknown", 2)
	assert.Error(t, err)
	_, err = s.CreateSession(ctx, "remote", 0)
	assert.Error(t, err)
}

func TestPageFlowWithRedirect(t *testing.T) {
	s := newTestService(t, "https://x.test/s")
	ctx := context.Background()
	created, err := s.CreateSession(ctx, "feed", 2)
	require.NoError(t, err)
	first, second := created.Participants[0], created.Participants[1]

	page, err := s.CurrentPage(ctx, second.Code)
	require.NoError(t, err)
	assert.Equal(t, IntroPage, page)

	_, err = s.FeedView(ctx, second.Code)
	assert.True(t, errors.Is(err, ErrWrongPage))

	require.NoError(t, s.CompleteIntro(ctx, second.Code))
	assert.True(t, errors.Is(s.CompleteIntro(ctx, second.Code), ErrWrongPage))
	require.NoError(t, s.CompleteBriefing(ctx, second.Code))

	view, err := s.FeedView(ctx, second.Code)
	require.NoError(t, err)
	require.Len(t, view.Posts, 2)
	assert.Equal(t, "dice", view.SearchTerm)
	assert.False(t, view.LabelAvailable)
	assert.Equal(t, []app_setting.TrendingTopic{{Label: "#dice", Count: "12K"}}, view.TrendingTopics)
	assert.Equal(t, app_setting.DefaultDwellThreshold, view.DwellThreshold)
	assert.Equal(t, app_setting.DefaultPreloaderDelay, view.PreloaderDelay)
	assert.Equal(t, "treatment", *view.Posts[0].Condition)

	touch := true
	require.NoError(t, s.SubmitFeed(ctx, second.Code, Telemetry{
		ScrollSequence:  "2,4",
		ViewportData:    "{\"2\":1.5}",
		LikesData:       "[2]",
		TouchCapability: &touch,
		DeviceType:      "mobile",
	}))

	page, err = s.CurrentPage(ctx, second.Code)
	require.NoError(t, err)
	assert.Equal(t, RedirectPage, page)

	redirect, err := s.RedirectView(ctx, second.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/s?PROLIFIC_PID="+second.Code+"&cc=ABCDEF&condition=treatment", redirect.Link)
	assert.Equal(t, app_setting.DefaultRedirectDelay, redirect.RedirectDelay)

	// the last page is never left
	require.NoError(t, s.advance(ctx, second.Code, RedirectPage, app_setting.SessionSetting{SurveyLink: "https://x.test/s"}))
	page, err = s.CurrentPage(ctx, second.Code)
	require.NoError(t, err)
	assert.Equal(t, RedirectPage, page)

	stored, err := s.GetSession(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, "NA", *stored.ProlificCompletionUrl)

	p := stored.Participants[1]
	assert.True(t, p.Finished)
	assert.Equal(t, "2,4", p.ScrollSequence)
	assert.Equal(t, "mobile", p.DeviceType)
	assert.True(t, *p.TouchCapability)
	posts, err := p.GetPosts()
	require.NoError(t, err)
	assert.Nil(t, posts)

	// the first participant keeps its posts
	for _, step := range []func(context.Context, string) error{s.CompleteIntro, s.CompleteBriefing} {
		require.NoError(t, step(ctx, first.Code))
	}
	require.NoError(t, s.SubmitFeed(ctx, first.Code, Telemetry{}))
	stored, err = s.GetSession(ctx, created.Code)
	require.NoError(t, err)
	posts, err = stored.Participants[0].GetPosts()
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, ProlificCompletionBaseUrl+"?cc=ABCDEF", *stored.ProlificCompletionUrl)

	rows, err := s.Export(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{created.Code, second.Code, "", "2", "treatment", second.Sequence, "2,4", "{\"2\":1.5}", "[2]", ""}, rows[2])
}

func TestPageFlowWithDebrief(t *testing.T) {
	s := newTestService(t, "")
	ctx := context.Background()
	created, err := s.CreateSession(ctx, "feed", 1)
	require.NoError(t, err)
	code := created.Participants[0].Code

	require.NoError(t, s.CompleteIntro(ctx, code))
	require.NoError(t, s.CompleteBriefing(ctx, code))
	require.NoError(t, s.SubmitFeed(ctx, code, Telemetry{}))

	_, err = s.RedirectView(ctx, code)
	assert.True(t, errors.Is(err, ErrWrongPage))

	debrief, err := s.Debrief(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, code, debrief.ParticipantCode)
	assert.Equal(t, "control", debrief.Condition)
}

func TestCompletionUrlReadsCurrentSession(t *testing.T) {
	s := newTestService(t, "")
	ctx := context.Background()
	created, err := s.CreateSession(ctx, "feed", 2)
	require.NoError(t, err)

	p, _, err := s.participant(ctx, created.Participants[1].Code)
	require.NoError(t, err)
	require.Nil(t, p.Session.ProlificCompletionUrl)

	// another participant finished after p was loaded
	require.NoError(t, s.DB.Model(&model.Session{}).Where("id = ?", created.Id).
		Update("prolific_completion_url", "NA").Error)

	require.NoError(t, s.DB.Transaction(func(tx *gorm.DB) error {
		return storeCompletionUrl(tx, p.SessionID)
	}))
	stored, err := s.GetSession(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, ProlificCompletionBaseUrl+"?cc=ABCDEF", *stored.ProlificCompletionUrl)

	assert.Error(t, s.DB.Transaction(func(tx *gorm.DB) error {
		return storeCompletionUrl(tx, "missing")
	}))
}

func TestSetLabel(t *testing.T) {
	s := newTestService(t, "https://x.test/s")
	ctx := context.Background()
	created, err := s.CreateSession(ctx, "feed", 1)
	require.NoError(t, err)
	code := created.Participants[0].Code

	require.NoError(t, s.SetLabel(ctx, code, ""))
	p, _, err := s.participant(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, p.Label)

	require.NoError(t, s.SetLabel(ctx, code, "P123"))
	require.NoError(t, s.SetLabel(ctx, code, "OTHER"))
	p, _, err = s.participant(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "P123", *p.Label)
	assert.Equal(t, "P123", p.Identity())

	assert.True(t, errors.Is(s.SetLabel(ctx, "nobody", "P1"), ErrParticipantNotFound))
}

func TestUnknownParticipant(t *testing.T) {
	s := newTestService(t, "")
	ctx := context.Background()

	_, err := s.CurrentPage(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrParticipantNotFound))
	_, err = s.GetSession(ctx, "nothing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestPageSequence(t *testing.T) {
	assert.Equal(t, []Page{IntroPage, BriefingPage, FeedPage, RedirectPage}, PageSequence(app_setting.SessionSetting{SurveyLink: "https://x.test"}))
	assert.Equal(t, []Page{IntroPage, BriefingPage, FeedPage, DebriefPage}, PageSequence(app_setting.SessionSetting{}))
	assert.Equal(t, "feed", FeedPage.String())
}

func TestProlificCompletionUrl(t *testing.T) {
	na, code, empty := "NA", "XYZ", ""
	assert.Equal(t, "NA", ProlificCompletionUrl(&model.Session{}))
	assert.Equal(t, "NA", ProlificCompletionUrl(&model.Session{CompletionCode: &code}))
	assert.Equal(t, ProlificCompletionBaseUrl+"?cc=XYZ", ProlificCompletionUrl(&model.Session{ProlificCompletionUrl: &na, CompletionCode: &code}))
	assert.Equal(t, ProlificCompletionBaseUrl, ProlificCompletionUrl(&model.Session{ProlificCompletionUrl: &na, CompletionCode: &empty}))
	assert.Equal(t, ProlificCompletionBaseUrl, ProlificCompletionUrl(&model.Session{ProlificCompletionUrl: &na}))
}
