package suggest

import "fmt"

// The closing format rules are advisory only. Models routinely wrap answers
// in markdown fences anyway, so extraction never assumes compliance.
const promptTemplate = `Today is %s.

Curate a list of songs connected to this day in music history. Cover these angles:
1. Songs or albums released on %s in any year.
2. Birthdays of notable artists born on %s.
3. Anniversaries of the deaths of notable artists on %s.
4. Songs tied to historical events that happened on %s.
5. Songs relevant to current events or topics trending today.
6. A healthy spread of genres and decades across the whole list.

%sRespond with a JSON object containing a single key "songs" whose value is an
array of exactly 20 objects. Each object must have the keys "title", "artist",
"reason" (one sentence on why the song fits today) and "searchQuery" (the text
to search for the track with, usually "title artist").

Do not wrap the JSON in markdown code fences and do not add any text outside
the JSON object. Prefer songs that verifiably exist on Spotify.`

// CompilePrompt assembles the full instruction text sent to the model.
func CompilePrompt(pc PromptContext) string {
	taste := pc.TasteBlock
	if taste != "" {
		taste += "\n"
	}

	return fmt.Sprintf(promptTemplate,
		pc.LongDate,
		pc.ShortDate, pc.ShortDate, pc.ShortDate, pc.ShortDate,
		taste,
	)
}
