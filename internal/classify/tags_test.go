package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTags_EngineeringTitle(t *testing.T) {
	tags := GenerateTags("Junior Engineer (Civil) Recruitment", nil)

	assert.Equal(t, []string{
		"junior", "engineer", "civil", "recruitment", "engineering",
		"odisha", "government-job", "sarkari-naukri",
	}, tags)
}

func TestGenerateTags_ConditionalTags(t *testing.T) {
	tags := GenerateTags("Police Constable and Staff Nurse", nil)

	assert.Contains(t, tags, "police")
	assert.Contains(t, tags, "medical")
	assert.NotContains(t, tags, "and")
}

func TestGenerateTags_BoundedAndDeduplicated(t *testing.T) {
	title := "Senior Medical Officer Doctor Nurse Teacher Professor Lecturer Engineer Clerk Officer Odisha"
	tags := GenerateTags(title, nil)

	require.LessOrEqual(t, len(tags), MaxTags)
	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
	for _, d := range DomainTags {
		assert.Contains(t, tags, d)
	}
}

func TestGenerateTags_AlwaysHasDomainTags(t *testing.T) {
	for _, title := range []string{"X", "Forest Guard", strings.Repeat("longword ", 20)} {
		tags := GenerateTags(title, nil)
		assert.LessOrEqual(t, len(tags), MaxTags)
		assert.Subset(t, tags, DomainTags, "title %q", title)
	}
}

func TestGenerateTags_DropsShortWordsAndStopWords(t *testing.T) {
	tags := GenerateTags("Post of SI With the ITI", nil)

	assert.Equal(t, []string{"post", "odisha", "government-job", "sarkari-naukri"}, tags)
}

func TestGenerateTags_CountsCharactersNotBytes(t *testing.T) {
	// "ପଦ" is two characters but six bytes.
	tags := GenerateTags("ପଦ ଶିକ୍ଷକ", nil)

	assert.NotContains(t, tags, "ପଦ")
	assert.Contains(t, tags, "ଶିକ୍ଷକ")
}
