package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	tu "github.com/desertthunder/retrograde/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			generator := &tu.MockGenerator{}
			searcher := &tu.MockSearcher{}

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Logger:    logger,
				Output:    output,
				Generator: generator,
				Searcher:  searcher,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.generator != generator {
				t.Error("expected generator to be set")
			}
			if runner.searcher != searcher {
				t.Error("expected searcher to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("spotify doubles as searcher", func(t *testing.T) {
			spotify, err := services.NewSpotifyService(map[string]string{
				"client_id":     "id",
				"client_secret": "secret",
			})
			if err != nil {
				t.Fatalf("NewSpotifyService failed: %v", err)
			}

			runner := NewRunner(RunnerOpts{Spotify: spotify})
			if runner.searcher == nil {
				t.Error("expected spotify to back the searcher")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("compact without pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := strings.TrimSpace(output.String()); got != `{"key":"value"}` {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("propagates write failures", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%d songs\n", 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if output.String() != "3 songs\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func suggestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "retrograde",
		Commands: runner.register(),
	}
}

func TestSuggestCommand(t *testing.T) {
	answer := `{"songs":[
		{"title":"Purple Rain","artist":"Prince","reason":"r1","searchQuery":"Purple Rain Prince"},
		{"title":"Heroes","artist":"David Bowie","reason":"r2","searchQuery":"Heroes Bowie"}
	]}`

	newRunner := func(output *bytes.Buffer, generator *tu.MockGenerator, searcher *tu.MockSearcher) *Runner {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.AccessToken = "stored-token"
		config.Suggestions.SearchesPerSecond = 100

		return NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: "config.toml",
			Generator:  generator,
			Searcher:   searcher,
			Output:     output,
		})
	}

	t.Run("JSONOutput", func(t *testing.T) {
		output := &bytes.Buffer{}
		generator := &tu.MockGenerator{Answer: answer}
		searcher := &tu.MockSearcher{Track: &services.Track{URI: "spotify:track:1", URL: "https://open.spotify.com/track/1"}}
		runner := newRunner(output, generator, searcher)

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest", "--json"})
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}

		if generator.Calls != 1 {
			t.Errorf("expected one generation call, got %d", generator.Calls)
		}
		if searcher.Calls != 2 {
			t.Errorf("expected one search per candidate, got %d", searcher.Calls)
		}
		for _, want := range []string{`"spotifyUri":"spotify:track:1"`, `"Purple Rain"`, `"Heroes"`} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("output missing %s: %s", want, output.String())
			}
		}
	})

	t.Run("PlainOutput", func(t *testing.T) {
		output := &bytes.Buffer{}
		generator := &tu.MockGenerator{Answer: answer}
		searcher := &tu.MockSearcher{Track: &services.Track{URI: "spotify:track:1"}}
		runner := newRunner(output, generator, searcher)

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest", "--date", "1984-06-25"})
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}

		if !strings.Contains(output.String(), "Songs for June 25") {
			t.Errorf("output missing header: %s", output.String())
		}
		if !strings.Contains(output.String(), "Prince - Purple Rain") {
			t.Errorf("output missing entry: %s", output.String())
		}
	})

	t.Run("AllMissesStillSucceeds", func(t *testing.T) {
		output := &bytes.Buffer{}
		generator := &tu.MockGenerator{Answer: answer}
		searcher := &tu.MockSearcher{Err: shared.ErrTrackNotFound}
		runner := newRunner(output, generator, searcher)

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest"})
		if err != nil {
			t.Fatalf("expected success with no resolved songs, got %v", err)
		}
		if !strings.Contains(output.String(), "No playable suggestions") {
			t.Errorf("expected empty-result message, got %s", output.String())
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newRunner(output, &tu.MockGenerator{Answer: answer}, &tu.MockSearcher{})

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest", "--date", "June 25"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("GenerationFailure", func(t *testing.T) {
		output := &bytes.Buffer{}
		generator := &tu.MockGenerator{Err: shared.ErrGenerationUnavailable}
		searcher := &tu.MockSearcher{}
		runner := newRunner(output, generator, searcher)

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest"})
		if !errors.Is(err, shared.ErrGenerationUnavailable) {
			t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
		}
		if searcher.Calls != 0 {
			t.Errorf("expected no searches after generation failure, got %d", searcher.Calls)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		output := &bytes.Buffer{}
		config := shared.DefaultConfig()
		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: "config.toml",
			Generator:  &tu.MockGenerator{Answer: answer},
			Searcher:   &tu.MockSearcher{},
			Output:     output,
		})

		err := suggestApp(runner).Run(context.Background(), []string{"retrograde", "suggest"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
