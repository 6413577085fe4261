package feeds

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxBodyChars caps the normalized body sent to the classifier.
	MaxBodyChars = 800

	// MinBodyTokens is the smallest body, in whitespace-delimited tokens,
	// worth classifying.
	MinBodyTokens = 20

	// sentenceThreshold is the fraction of the cap a sentence end must lie
	// beyond to be used as the cut point.
	sentenceThreshold = 0.7
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// stripPolicy removes every element. Script and style content is dropped,
// comments are removed, and each stripped tag leaves a space behind so
// adjacent block elements do not fuse their words.
var stripPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// StripHTML reduces markup to plain text with entities decoded and
// whitespace collapsed to single spaces.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	clean := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// StripTags removes anything that looks like a tag from a title and trims
// the result. Entities are left as-is.
func StripTags(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// TruncateToSentence shortens text to at most maxChars characters. When the
// cut lands mid-text it backs up to the last '.', '!' or '?' if that mark
// lies beyond 70% of maxChars; otherwise the hard cut is kept.
func TruncateToSentence(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	truncated := runes[:maxChars]
	last := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if r := truncated[i]; r == '.' || r == '!' || r == '?' {
			last = i
			break
		}
	}

	if float64(last) > float64(maxChars)*sentenceThreshold {
		return strings.TrimSpace(string(truncated[:last+1]))
	}
	return string(truncated)
}

// NormalizeBody turns an item's body markup into the text handed to the
// classifier.
func NormalizeBody(markup string) string {
	return TruncateToSentence(StripHTML(markup), MaxBodyChars)
}

// CountTokens counts whitespace-delimited tokens in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Classifiable reports whether a normalized body carries enough text to be
// worth a classification call.
func Classifiable(body string) bool {
	return CountTokens(body) >= MinBodyTokens
}
