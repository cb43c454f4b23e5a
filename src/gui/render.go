package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-overlay-llm/src/transcript"
)

// segments renders an entry's spans. User entries are right aligned in the
// primary colour; assistant entries use the default style.
func segments(e transcript.Entry) []widget.RichTextSegment {
	spans := e.Spans
	if spans == nil {
		spans = transcript.Format(e.Text)
	}

	base := widget.RichTextStyle{Inline: true, SizeName: theme.SizeNameText}
	if e.Role == transcript.RoleUser {
		base.Alignment = fyne.TextAlignTrailing
		base.ColorName = theme.ColorNamePrimary
	}

	segs := make([]widget.RichTextSegment, 0, len(spans))
	for _, s := range spans {
		style := base
		text := s.Text
		if s.Break {
			text = "\n"
		}
		style.TextStyle = fyne.TextStyle{Bold: s.Bold, Italic: s.Italic, Monospace: s.Code}
		segs = append(segs, &widget.TextSegment{Text: text, Style: style})
	}
	return segs
}
