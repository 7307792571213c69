package extract

import (
	"context"
	"regexp"
	"strings"
)

// rtfHandler strips RTF markup down to the plain text it carries:
// font/color/style tables and embedded object/picture groups are removed
// whole, paragraph and line controls become newlines, the remaining
// control words and hex escapes are dropped.
type rtfHandler struct{}

var (
	// destination groups that never contribute body text
	rtfDestinations = []string{`\fonttbl`, `\colortbl`, `\stylesheet`, `\info`, `\object`, `\pict`, `\*`}

	reRTFNewline = regexp.MustCompile(`\\par\b ?|\\line\b ?`)
	reRTFTab     = regexp.MustCompile(`\\tab\b ?`)
	reRTFHex     = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	reRTFControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	reRTFSpaces  = regexp.MustCompile(`[ \t]+`)
	reRTFBlank   = regexp.MustCompile(`\n{2,}`)
)

func (rtfHandler) Extract(_ context.Context, data []byte) (string, int, error) {
	return stripRTF(string(data)), 0, nil
}

func stripRTF(s string) string {
	for _, dest := range rtfDestinations {
		s = removeRTFGroup(s, dest)
	}

	// \pard resets paragraph formatting; drop it before \par runs so the
	// prefix match cannot leave a stray "d" behind.
	s = strings.ReplaceAll(s, `\pard`, "")
	s = reRTFNewline.ReplaceAllString(s, "\n")
	s = reRTFTab.ReplaceAllString(s, "\t")
	s = reRTFHex.ReplaceAllString(s, "")
	s = reRTFControl.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")

	s = reRTFSpaces.ReplaceAllString(s, " ")
	s = reRTFBlank.ReplaceAllString(s, "\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// removeRTFGroup deletes every brace-balanced group opening with the given
// control word, e.g. {\fonttbl ...{...}...}.
func removeRTFGroup(s, marker string) string {
	for {
		i := strings.Index(s, "{"+marker)
		if i < 0 {
			return s
		}
		depth := 0
		j := i
		for ; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if j >= len(s) {
			// unbalanced group, drop the tail
			return s[:i]
		}
		s = s[:i] + s[j+1:]
	}
}
