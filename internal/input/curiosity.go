package input

import "strings"

// #region curiosity

// ExtractCuriosity scans text for phrases that signal a wish to know something.
// Returns the matched trigger phrases.
func ExtractCuriosity(text string) []string {
	lower := strings.ToLower(text)
	triggers := []string{
		"i want to know",
		"i wonder",
		"i'm curious",
		"i am curious",
		"i don't know",
		"i do not know",
		"i'd like to understand",
		"i want to understand",
		"why",
	}
	var found []string
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			found = append(found, t)
		}
	}
	return found
}

// #endregion curiosity
