package session

import (
	"net/url"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/model"
)

// Redirect query parameters besides the participant id.
const (
	CompletionCodeParam = "cc"
	ConditionParam      = "condition"
)

// BuildRedirect returns the survey link of setting with the participant
// identity, the session completion code and the participant condition attached
// as query parameters. Code and condition are left out when nil.
func BuildRedirect(p *model.Participant, setting app_setting.SessionSetting, completionCode *string) string {
	params := url.Values{}
	params.Set(setting.UrlParam, p.Identity())
	if completionCode != nil {
		params.Set(CompletionCodeParam, *completionCode)
	}
	if p.FeedCondition != nil {
		params.Set(ConditionParam, *p.FeedCondition)
	}
	return setting.SurveyLink + "?" + params.Encode()
}
