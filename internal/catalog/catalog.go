package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/sendrec/videogate/internal/validate"
)

const (
	DefaultManifestPath = "videos.json"
	DefaultPlayPath     = "video.html"
)

var ErrInvalidManifest = errors.New("invalid video manifest")

// Video is one manifest entry. Manifest order is display order.
type Video struct {
	File  string `json:"file"`
	Title string `json:"title,omitempty"`
}

type Card struct {
	Title   string `json:"title"`
	File    string `json:"file"`
	PlayURL string `json:"playUrl"`
}

// Source fetches the current manifest. Implementations must not reuse a
// cached response.
type Source interface {
	Fetch(ctx context.Context) ([]Video, error)
}

// ParseManifest decodes a manifest array. Entries without a usable file or
// with an oversized title are skipped; the rest keep their order.
func ParseManifest(data []byte) ([]Video, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidManifest)
	}

	var videos []Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	kept := videos[:0]
	for i, v := range videos {
		msg := validate.File(v.File)
		if v.File == "" {
			msg = "file is required"
		}
		if msg == "" {
			msg = validate.Title(v.Title)
		}
		if msg != "" {
			slog.Warn("catalog: skipping manifest entry", "index", i, "reason", msg)
			continue
		}
		kept = append(kept, v)
	}
	return kept, nil
}

// PlayURL links to the playback page with file as a query parameter.
func PlayURL(playPath, file string) string {
	return playPath + "?" + url.Values{"file": {file}}.Encode()
}

func Cards(videos []Video, playPath string) []Card {
	cards := make([]Card, 0, len(videos))
	for _, v := range videos {
		title := v.Title
		if title == "" {
			title = v.File
		}
		cards = append(cards, Card{
			Title:   title,
			File:    v.File,
			PlayURL: PlayURL(playPath, v.File),
		})
	}
	return cards
}

// Library fetches the manifest once per call and turns it into cards.
type Library struct {
	source   Source
	playPath string
}

func NewLibrary(source Source, playPath string) *Library {
	if playPath == "" {
		playPath = DefaultPlayPath
	}
	return &Library{source: source, playPath: playPath}
}

func (l *Library) Cards(ctx context.Context) ([]Card, error) {
	videos, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Cards(videos, l.playPath), nil
}

// Find returns the manifest entry for file.
func (l *Library) Find(ctx context.Context, file string) (Video, bool, error) {
	videos, err := l.source.Fetch(ctx)
	if err != nil {
		return Video{}, false, err
	}
	for _, v := range videos {
		if v.File == file {
			return v, true, nil
		}
	}
	return Video{}, false, nil
}

// Contains reports whether file is listed in the current manifest.
func (l *Library) Contains(ctx context.Context, file string) (bool, error) {
	_, ok, err := l.Find(ctx, file)
	return ok, err
}
