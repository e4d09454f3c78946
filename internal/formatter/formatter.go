// package formatter provides functions to export suggestion sets to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/desertthunder/retrograde/internal/suggest"
)

// ExportToCSV converts a suggestion set to CSV format with columns: Title, Artist, Reason, URI, URL
func ExportToCSV(songs []suggest.EnrichedSong) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Reason", "URI", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.Title,
			song.Artist,
			song.Reason,
			song.URI,
			song.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a suggestion set to Markdown with one entry per song
func ExportToMarkdown(date string, songs []suggest.EnrichedSong) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Songs for %s\n\n", date))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(songs)))

	for i, song := range songs {
		title := song.Title
		if song.URL != "" {
			title = fmt.Sprintf("[%s](%s)", song.Title, song.URL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, title))
		if song.Reason != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", song.Reason))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a suggestion set to plain text format
func ExportToText(date string, songs []suggest.EnrichedSong) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs for %s\n", date))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(songs)))

	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Title))
		if song.Reason != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", song.Reason))
		}
	}

	return buf.Bytes(), nil
}

// WriteExport writes a suggestion set to a file, choosing the format from the
// file extension: .csv, .md, .json, anything else plain text.
func WriteExport(date string, songs []suggest.EnrichedSong, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err = ExportToCSV(songs)
	case ".md", ".markdown":
		data, err = ExportToMarkdown(date, songs)
	case ".json":
		data, err = shared.MarshalJSON(map[string]any{"date": date, "songs": songs}, true)
	default:
		data, err = ExportToText(date, songs)
	}
	if err != nil {
		return fmt.Errorf("failed to format export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return nil
}
