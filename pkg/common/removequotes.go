package common

// RemoveQuotesIfAny strips one pair of matching single or double quotes around the text.
// Chat users often quote prompts, e.g. `draw "a red barn"`.
func RemoveQuotesIfAny(text string) string {
	if len(text) > 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return text[1 : len(text)-1]
		}
	}
	return text
}
