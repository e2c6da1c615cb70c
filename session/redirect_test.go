package session

import (
	"net/url"
	"testing"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRedirect(t *testing.T) {
	setting := app_setting.SessionSetting{SurveyLink: "https://x.test/s", UrlParam: "PROLIFIC_PID"}
	label, condition, code := "P123", "control", "ABCDEF"
	p := &model.Participant{Code: "xyz", Label: &label, FeedCondition: &condition}

	assert.Equal(t,
		"https://x.test/s?PROLIFIC_PID=P123&cc=ABCDEF&condition=control",
		BuildRedirect(p, setting, &code))
}

func TestBuildRedirectOmitsMissingValues(t *testing.T) {
	setting := app_setting.SessionSetting{SurveyLink: "https://x.test/s", UrlParam: "pid"}
	p := &model.Participant{Code: "xyz"}

	assert.Equal(t, "https://x.test/s?pid=xyz", BuildRedirect(p, setting, nil))
}

func TestBuildRedirectEncodesValues(t *testing.T) {
	setting := app_setting.SessionSetting{SurveyLink: "https://x.test/s", UrlParam: "id"}
	label, condition := "a b&c", "high/low"
	p := &model.Participant{Code: "xyz", Label: &label, FeedCondition: &condition}

	link := BuildRedirect(p, setting, nil)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "a b&c", parsed.Query().Get("id"))
	assert.Equal(t, "high/low", parsed.Query().Get("condition"))
	assert.Empty(t, parsed.Query().Get("cc"))
}
