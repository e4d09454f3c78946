package suggest

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"golang.org/x/time/rate"
)

const defaultSearchesPerSecond = 10

// Request is one pipeline invocation. Immutable once built.
type Request struct {
	// Date defaults to the current time when zero.
	Date time.Time
	// TasteHints are free-text listener notes folded into the prompt.
	TasteHints []string
	// AccessToken is the opaque catalog credential, forwarded as-is.
	AccessToken string
}

// EnrichedSong is a candidate that resolved to a playable catalog track.
type EnrichedSong struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Reason     string `json:"reason"`
	URI        string `json:"spotifyUri"`
	AlbumArt   string `json:"albumArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	URL        string `json:"spotifyUrl,omitempty"`
}

// Pipeline runs the full suggestion flow: prompt → generation → extraction →
// concurrent catalog resolution → stable filter. Each run is independent;
// nothing is cached or shared across requests.
type Pipeline struct {
	generator services.Generator
	searcher  services.TrackSearcher
	logger    *log.Logger
	limiter   *rate.Limiter
	clock     func() time.Time
}

// NewPipeline wires the pipeline's collaborators. searchesPerSecond bounds
// the outbound catalog search rate; values <= 0 fall back to the default.
func NewPipeline(generator services.Generator, searcher services.TrackSearcher, logger *log.Logger, searchesPerSecond float64) *Pipeline {
	if searchesPerSecond <= 0 {
		searchesPerSecond = defaultSearchesPerSecond
	}

	return &Pipeline{
		generator: generator,
		searcher:  searcher,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(searchesPerSecond), int(searchesPerSecond)),
		clock:     time.Now,
	}
}

// Run executes the pipeline for one request.
//
// Generation and extraction failures abort the run before any catalog search
// is issued. A candidate whose search fails or finds nothing is dropped from
// the result; an empty final list is a success, not an error.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]EnrichedSong, error) {
	date := req.Date
	if date.IsZero() {
		date = p.clock()
	}

	pc := BuildPromptContext(date, req.TasteHints)
	prompt := CompilePrompt(pc)

	p.logger.Debug("requesting suggestions", "date", pc.ShortDate, "hints", len(req.TasteHints))

	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	candidates, err := ExtractSongs(answer)
	if err != nil {
		p.logger.Error("model answer did not parse", "raw", shared.Truncate(answer, 512))
		return nil, err
	}

	if len(candidates) == 0 {
		p.logger.Warn("model returned no candidates", "date", pc.ShortDate)
		return []EnrichedSong{}, nil
	}

	// Scatter/gather: each goroutine owns exactly one result slot, so the
	// gather reassembles candidate order rather than completion order.
	resolved := make([]*services.Track, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate SongCandidate) {
			defer wg.Done()

			if err := p.limiter.Wait(ctx); err != nil {
				return
			}

			track, err := p.searcher.SearchTrack(ctx, candidate.Query(), req.AccessToken)
			if err != nil {
				p.logger.Debug("candidate unresolved", "query", candidate.Query(), "error", err)
				return
			}
			resolved[i] = track
		}(i, candidate)
	}
	wg.Wait()

	songs := make([]EnrichedSong, 0, len(candidates))
	for i, candidate := range candidates {
		track := resolved[i]
		if track == nil || track.URI == "" {
			continue
		}
		songs = append(songs, EnrichedSong{
			Title:      candidate.Title,
			Artist:     candidate.Artist,
			Reason:     candidate.Reason,
			URI:        track.URI,
			AlbumArt:   track.AlbumArt,
			PreviewURL: track.PreviewURL,
			URL:        track.URL,
		})
	}

	p.logger.Info("suggestions resolved", "candidates", len(candidates), "resolved", len(songs))

	return songs, nil
}
