// Package classify derives categories and tags from posting titles.
package classify

import (
	"strings"

	"github.com/amishk599/odishajobs/internal/model"
)

type categoryRule struct {
	category model.Category
	keywords []string
}

// categoryRules is evaluated in order; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{model.CategoryEngineering, []string{"engineer", "technical", "civil", "mechanical", "electrical"}},
	{model.CategoryTeaching, []string{"teacher", "lecturer", "professor", "education"}},
	{model.CategoryPolice, []string{"police", "constable", "si ", "inspector"}},
	{model.CategoryMedical, []string{"doctor", "nurse", "medical", "health"}},
	{model.CategoryAdministrative, []string{"clerk", "assistant", "officer", "administrative"}},
	{model.CategoryRailway, []string{"railway", "station master", "ticket"}},
	{model.CategoryBanking, []string{"bank", "banking"}},
}

// Categorize returns the category for a title using case-insensitive keyword
// matching. Titles matching no rule are CategoryOther.
func Categorize(title string) model.Category {
	titleLower := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(titleLower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
