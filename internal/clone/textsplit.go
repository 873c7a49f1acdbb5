package clone

import "strings"

// splitText breaks text into chunks of at most maxChars characters without
// splitting words. Words longer than maxChars become their own chunk.
// Whitespace between words collapses to a single space; leading and trailing
// whitespace is dropped.
func splitText(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxChars <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var chunks []string
	var buf strings.Builder
	for _, w := range words {
		if buf.Len() == 0 {
			buf.WriteString(w)
			continue
		}
		if buf.Len()+1+len(w) > maxChars {
			chunks = append(chunks, buf.String())
			buf.Reset()
			buf.WriteString(w)
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(w)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
