package app_setting

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultDwellThreshold = 75
	DefaultPreloaderDelay = 5000
	DefaultRedirectDelay  = 3000
	DefaultDelimiter      = ","
	DefaultUrlParam       = "PROLIFIC_PID"
)

// TrendingTopic is one item of the trending topics side panel.
type TrendingTopic struct {
	Label string `yaml:"label" json:"label"`
	Count string `yaml:"count" json:"count"`
}

// SessionSetting configures one kind of session. Keys left out of a named
// config are inherited from the defaults section.
type SessionSetting struct {
	Name string `yaml:"name" json:"name"`
	// Local path or a github / google drive url of the feed dataset.
	DataPath string `yaml:"data_path" json:"data_path"`
	// Single character field separator of the dataset.
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Column holding the experimental condition, may be empty.
	ConditionCol string `yaml:"condition_col" json:"condition_col"`
	SearchTerm   string `yaml:"search_term" json:"search_term"`
	// Share (in percent) of a post that has to be visible to count as dwell.
	DwellThreshold int `yaml:"dwell_threshold" json:"dwell_threshold"`
	// Milliseconds the loading screen is shown.
	PreloaderDelay int `yaml:"preloader_delay" json:"preloader_delay"`
	// Milliseconds before the automatic redirect to the survey.
	RedirectDelay int `yaml:"redirect_delay" json:"redirect_delay"`
	// Query parameter name carrying the participant id in the redirect.
	UrlParam string `yaml:"url_param" json:"url_param"`
	// Redirect base url. Empty routes participants to the debrief page.
	SurveyLink     string          `yaml:"survey_link" json:"survey_link"`
	CompletionCode string          `yaml:"completion_code" json:"completion_code"`
	TrendingTopics []TrendingTopic `yaml:"trending_topics" json:"trending_topics"`

	NumDemoParticipants int `yaml:"num_demo_participants" json:"num_demo_participants"`

	// yaml keys present in the config, set even when their value is empty
	explicit map[string]bool
}

// UnmarshalYAML records which keys a config sets, so that an explicit empty
// value overrides the defaults section instead of inheriting from it.
func (c *SessionSetting) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain SessionSetting
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	keys := map[string]interface{}{}
	if err := unmarshal(&keys); err != nil {
		return err
	}
	c.explicit = make(map[string]bool, len(keys))
	for k := range keys {
		c.explicit[k] = true
	}
	return nil
}

type SessionSettings struct {
	Defaults SessionSetting   `yaml:"session_config_defaults"`
	Configs  []SessionSetting `yaml:"session_configs"`
}

func ParseSessionSettings(path string) (SessionSettings, error) {
	s := SessionSettings{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(err, "fail to read session settings")
	}
	if err = yaml.Unmarshal(yamlFile, &s); err != nil {
		return s, errors.Wrap(err, "fail to unmarshal session settings")
	}
	return s, nil
}

// Get resolves the named config against the defaults section.
func (s SessionSettings) Get(name string) (SessionSetting, error) {
	for _, c := range s.Configs {
		if c.Name == name {
			return c.merge(s.Defaults), nil
		}
	}
	return SessionSetting{}, fmt.Errorf("unknown session config: %s", name)
}

func (c SessionSetting) merge(d SessionSetting) SessionSetting {
	str := func(key, v, def string) string {
		if v == "" && !c.explicit[key] {
			return def
		}
		return v
	}
	num := func(key string, v, def int) int {
		if v == 0 && !c.explicit[key] {
			return def
		}
		return v
	}
	c.DataPath = str("data_path", c.DataPath, d.DataPath)
	c.Delimiter = str("delimiter", c.Delimiter, d.Delimiter)
	c.ConditionCol = str("condition_col", c.ConditionCol, d.ConditionCol)
	c.SearchTerm = str("search_term", c.SearchTerm, d.SearchTerm)
	c.UrlParam = str("url_param", c.UrlParam, d.UrlParam)
	c.SurveyLink = str("survey_link", c.SurveyLink, d.SurveyLink)
	c.CompletionCode = str("completion_code", c.CompletionCode, d.CompletionCode)
	c.DwellThreshold = num("dwell_threshold", c.DwellThreshold, d.DwellThreshold)
	c.PreloaderDelay = num("preloader_delay", c.PreloaderDelay, d.PreloaderDelay)
	c.RedirectDelay = num("redirect_delay", c.RedirectDelay, d.RedirectDelay)
	c.NumDemoParticipants = num("num_demo_participants", c.NumDemoParticipants, d.NumDemoParticipants)
	if len(c.TrendingTopics) == 0 && !c.explicit["trending_topics"] {
		c.TrendingTopics = d.TrendingTopics
	}
	return c.WithBuiltinDefaults()
}

// WithBuiltinDefaults fills whatever is still unset with the built-in values.
func (c SessionSetting) WithBuiltinDefaults() SessionSetting {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.UrlParam == "" {
		c.UrlParam = DefaultUrlParam
	}
	if c.DwellThreshold == 0 {
		c.DwellThreshold = DefaultDwellThreshold
	}
	if c.PreloaderDelay == 0 {
		c.PreloaderDelay = DefaultPreloaderDelay
	}
	if c.RedirectDelay == 0 {
		c.RedirectDelay = DefaultRedirectDelay
	}
	return c
}
