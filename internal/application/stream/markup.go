package stream

import "strings"

// stripMarkup removes inline tool-call markup blocks from settled
// text. A complete <tag>...</tag> block is cut out whole; an opening
// tag with no matching close is cut from its start to end-of-stream,
// as is a partial opening tag truncated mid-token. The remainder
// around stripped blocks is preserved verbatim.
func stripMarkup(text string, tags []string) string {
	for _, tag := range tags {
		text = stripTag(text, tag)
	}
	return strings.TrimSpace(text)
}

func stripTag(text, tag string) string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	for {
		i := strings.Index(text, open)
		if i < 0 {
			break
		}
		j := strings.Index(text[i+len(open):], closing)
		if j < 0 {
			// Unterminated block at end of stream.
			return text[:i]
		}
		text = text[:i] + text[i+len(open)+j+len(closing):]
	}

	// A truncated opening tag ("<tag" without its ">", or any prefix of
	// it) left dangling at end of stream.
	for k := len(open) - 1; k > 0; k-- {
		if strings.HasSuffix(text, open[:k]) {
			return text[:len(text)-k]
		}
	}
	return text
}
