package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/odishajobs/internal/model"
)

// MaxTags is the upper bound on the tag list length.
const MaxTags = 10

// DomainTags are appended to every tag list.
var DomainTags = []string{"odisha", "government-job", "sarkari-naukri"}

var stopWords = map[string]bool{"the": true, "and": true, "for": true, "with": true, "from": true}

type tagRule struct {
	re  *regexp.Regexp
	tag string
}

var tagRules = []tagRule{
	{regexp.MustCompile(`(?i)engineer`), "engineering"},
	{regexp.MustCompile(`(?i)teacher|professor|lecturer`), "teaching"},
	{regexp.MustCompile(`(?i)police|constable`), "police"},
	{regexp.MustCompile(`(?i)doctor|nurse|medical`), "medical"},
	{regexp.MustCompile(`(?i)clerk|officer`), "clerical"},
}

// GenerateTags builds a deduplicated tag list of at most MaxTags entries from
// the title. The summary is accepted for future use and may be nil; the
// result depends on the title only. The domain tags are always present.
func GenerateTags(title string, _ *model.AISummary) []string {
	var derived []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(word) > 3 && !stopWords[word] {
			derived = append(derived, word)
		}
	}
	for _, rule := range tagRules {
		if rule.re.MatchString(title) {
			derived = append(derived, rule.tag)
		}
	}

	reserved := make(map[string]bool, len(DomainTags))
	for _, t := range DomainTags {
		reserved[t] = true
	}

	seen := make(map[string]bool)
	tags := make([]string, 0, MaxTags)
	for _, t := range derived {
		if seen[t] || reserved[t] {
			continue
		}
		if len(tags) == MaxTags-len(DomainTags) {
			break
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return append(tags, DomainTags...)
}
