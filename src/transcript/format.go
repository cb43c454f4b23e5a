package transcript

import (
	"regexp"
	"strings"
)

// Span is a run of text with one style. A Break span marks a line break and
// carries no text.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Break  bool
}

// Markers are private-use runes so they cannot collide with model output once
// stripped from the input.
const (
	boldOpen    = '\uE000'
	boldClose   = '\uE001'
	italicOpen  = '\uE002'
	italicClose = '\uE003'
	codeOpen    = '\uE004'
	codeClose   = '\uE005'
)

type rule struct {
	re          *regexp.Regexp
	open, close rune
}

// Applied in order, each pass over the output of the previous one.
var rules = []rule{
	{regexp.MustCompile(`\*\*(.+?)\*\*`), boldOpen, boldClose},
	{regexp.MustCompile(`__(.+?)__`), boldOpen, boldClose},
	{regexp.MustCompile(`\*(.+?)\*`), italicOpen, italicClose},
	{regexp.MustCompile(`_(.+?)_`), italicOpen, italicClose},
	{regexp.MustCompile("`(.+?)`"), codeOpen, codeClose},
}

var markerStripper = strings.NewReplacer(
	string(boldOpen), "", string(boldClose), "",
	string(italicOpen), "", string(italicClose), "",
	string(codeOpen), "", string(codeClose), "",
)

// Format converts the lightweight markers used by models (**bold**, __bold__,
// *italic*, _italic_, `code`) and newlines into styled spans. Anything else is
// kept as literal text.
func Format(text string) []Span {
	s := markerStripper.Replace(text)
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, string(r.open)+"${1}"+string(r.close))
	}

	var (
		spans []Span
		cur   strings.Builder
		bold  int
		ital  int
		code  int
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		spans = append(spans, Span{Text: cur.String(), Bold: bold > 0, Italic: ital > 0, Code: code > 0})
		cur.Reset()
	}
	for _, c := range s {
		switch c {
		case boldOpen:
			flush()
			bold++
		case boldClose:
			flush()
			bold--
		case italicOpen:
			flush()
			ital++
		case italicClose:
			flush()
			ital--
		case codeOpen:
			flush()
			code++
		case codeClose:
			flush()
			code--
		case '\n':
			flush()
			spans = append(spans, Span{Break: true})
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return spans
}

// plainText joins spans back into unstyled text.
func plainText(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		if sp.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(sp.Text)
	}
	return b.String()
}
