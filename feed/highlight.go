package feed

import (
	"regexp"
)

// HighlightPass wraps every match of Pattern using Replacement. Passes run in
// order, later passes must not match markup inserted by earlier ones.
type HighlightPass struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

const spanReplacement = `<span class="text-primary">${0}</span>`

// HighlightPasses are applied hashtag, cashtag, mention, url. The url pattern
// excludes '<', '>' and quotes, so it cannot reach into spans inserted before.
var HighlightPasses = []HighlightPass{
	{
		Name:        "hashtag",
		Pattern:     regexp.MustCompile(`\B(#[a-zA-Z0-9_]+\b)`),
		Replacement: spanReplacement,
	},
	{
		Name:        "cashtag",
		Pattern:     regexp.MustCompile(`\B(\$[a-zA-Z0-9_.]+\b)`),
		Replacement: spanReplacement,
	},
	{
		Name:        "mention",
		Pattern:     regexp.MustCompile(`\B(@[a-zA-Z0-9_]+\b)`),
		Replacement: spanReplacement,
	},
	{
		Name:        "url",
		Pattern:     regexp.MustCompile(`(http|ftp|https)://([\w_-]+(?:(?:\.[\w_-]+)+))([\w.,@?^=%&:/~+#-]*[\w@?^=%&/~+#-])`),
		Replacement: `<a class="text-primary">${0}</a>`,
	},
}

// HighlightEntities applies all passes to text once.
func HighlightEntities(text string) string {
	for _, pass := range HighlightPasses {
		text = pass.Pattern.ReplaceAllString(text, pass.Replacement)
	}
	return text
}
