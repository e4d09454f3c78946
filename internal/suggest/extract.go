package suggest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/retrograde/internal/shared"
)

// SongCandidate is one suggestion recovered from the model's answer, not yet
// verified to exist in the catalog. Extra fields in the answer are ignored.
type SongCandidate struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Reason      string `json:"reason"`
	SearchQuery string `json:"searchQuery"`
}

// Query returns the catalog search text, falling back to "title artist" when
// the model left searchQuery blank.
func (c SongCandidate) Query() string {
	if q := strings.TrimSpace(c.SearchQuery); q != "" {
		return q
	}
	return strings.TrimSpace(c.Title + " " + c.Artist)
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractSongs recovers the candidate list from the model's raw answer.
//
// Three tiers are tried in order, first success wins: the whole text as JSON,
// the inner content of a fenced code block, then the substring from the first
// "{" through the last "}". A valid object without a "songs" key yields an
// empty list. When every tier fails the answer is unusable and
// [shared.ErrUnparseableResponse] is returned; no partial data is synthesized.
func ExtractSongs(text string) ([]SongCandidate, error) {
	if songs, ok := decodeSongs(text); ok {
		return songs, nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if songs, ok := decodeSongs(m[1]); ok {
			return songs, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if songs, ok := decodeSongs(text[start : end+1]); ok {
			return songs, nil
		}
	}

	return nil, fmt.Errorf("%w: no extraction tier matched", shared.ErrUnparseableResponse)
}

// decodeSongs parses one tier's text as the expected envelope. Entries are
// decoded individually so a single malformed entry drops out instead of
// discarding the whole answer.
func decodeSongs(text string) ([]SongCandidate, bool) {
	var envelope struct {
		Songs []json.RawMessage `json:"songs"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, false
	}

	songs := make([]SongCandidate, 0, len(envelope.Songs))
	for _, raw := range envelope.Songs {
		var candidate SongCandidate
		if err := json.Unmarshal(raw, &candidate); err != nil {
			continue
		}
		songs = append(songs, candidate)
	}

	return songs, true
}
