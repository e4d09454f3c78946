package suggest

import (
	"strings"
	"time"
)

// PromptContext carries the natural-language framing derived from the request
// date and taste hints. Derivation is pure; no external calls.
type PromptContext struct {
	// ShortDate is the "month day" form, e.g. "June 4".
	ShortDate string
	// LongDate is the full form, e.g. "Saturday, June 4, 2022".
	LongDate string
	// TasteBlock is empty when no hints were given, otherwise an instruction
	// line followed by one bullet per hint.
	TasteBlock string
}

// BuildPromptContext derives the prompt framing for a date and optional
// taste hints.
func BuildPromptContext(date time.Time, hints []string) PromptContext {
	pc := PromptContext{
		ShortDate: date.Format("January 2"),
		LongDate:  date.Format("Monday, January 2, 2006"),
	}

	if len(hints) == 0 {
		return pc
	}

	var sb strings.Builder
	sb.WriteString("The listener has shared notes about their taste. Weave them in where they fit:\n")
	for _, hint := range hints {
		sb.WriteString("- ")
		sb.WriteString(hint)
		sb.WriteString("\n")
	}
	pc.TasteBlock = sb.String()

	return pc
}
