// Package tracker polls a station's now-playing JSON API and records the
// playlist history in a relational store. It shares no runtime state with
// the recording module; the two observe the same station through different
// interfaces.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/services"
)

var module = "tracker"

// minPollWait bounds how aggressively the API time hint can make us poll.
const minPollWait = 5 * time.Second

// Tracker is the playlist tracking module.
type Tracker struct {
	services.Service
	cfg    *Config
	logger *slog.Logger
	store  Store
	client *http.Client

	// newStore is swappable for tests.
	newStore func(dsn string) (Store, error)
}

// New creates and returns a new Tracker.
func New(cfg Config, logger slog.Logger) (*Tracker, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}

	t := &Tracker{
		cfg:      &cfg,
		logger:   logger.With("module", module),
		client:   &http.Client{Timeout: 10 * time.Second},
		newStore: newGormStore,
	}

	t.Service = services.NewBasicService(t.starting, t.running, t.stopping)

	return t, nil
}

func (t *Tracker) starting(ctx context.Context) error {
	if err := t.cfg.Validate(); err != nil {
		t.logger.Error("invalid configuration", "err", err)
		return err
	}

	store, err := t.newStore(t.cfg.Database)
	if err != nil {
		t.logger.Error("error opening store", "err", err)
		return err
	}
	t.store = store

	channels := make([]Channel, 0, len(t.cfg.Channels))
	for _, c := range t.cfg.Channels {
		channels = append(channels, Channel{ID: c.ID, Name: c.Name})
	}
	return t.store.SyncChannels(ctx, channels)
}

func (t *Tracker) running(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, ch := range t.cfg.Channels {
		wg.Add(1)
		go func(ch ChannelConfig) {
			defer wg.Done()
			t.pollChannel(ctx, ch)
		}(ch)
	}
	wg.Wait()
	return nil
}

func (t *Tracker) stopping(_ error) error {
	t.logger.Info("stopping")
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

// nowPlaying is the JSON payload of the now-playing API. Year and Time come
// back as numbers or strings depending on the station backend, so both are
// parsed leniently.
type nowPlaying struct {
	Artist string      `json:"artist"`
	Title  string      `json:"title"`
	Album  string      `json:"album"`
	Year   json.Number `json:"year"`
	Cover  string      `json:"cover"`
	Time   json.Number `json:"time"`
}

// valid reports whether the payload carries a complete track identity.
func (p nowPlaying) valid() bool {
	return p.Artist != "" && p.Title != "" && p.Album != ""
}

// same compares the track-identity fields, ignoring the volatile time hint.
func (p nowPlaying) same(other nowPlaying) bool {
	return p.Artist == other.Artist &&
		p.Title == other.Title &&
		p.Album == other.Album &&
		p.Year == other.Year &&
		p.Cover == other.Cover
}

func (p nowPlaying) year() int {
	y, err := p.Year.Int64()
	if err != nil {
		return 0
	}
	return int(y)
}

// wait returns how long to sleep before the next poll: the API's remaining
// track time when present, the configured interval otherwise.
func (p nowPlaying) wait(base time.Duration) time.Duration {
	secs, err := p.Time.Int64()
	if err != nil {
		return base
	}
	d := time.Duration(secs+1) * time.Second
	if d < minPollWait {
		return minPollWait
	}
	return d
}

func (t *Tracker) fetch(ctx context.Context, url string) (nowPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nowPlaying{}, err
	}
	req.Header.Set("User-Agent", fmt.Sprintf("icyrec/1.0 (+contact: %s)", t.cfg.Contact))
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nowPlaying{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nowPlaying{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nowPlaying{}, err
	}

	var payload nowPlaying
	if err := json.Unmarshal(body, &payload); err != nil {
		return nowPlaying{}, fmt.Errorf("invalid JSON response: %w", err)
	}
	return payload, nil
}

// pollChannel runs one channel's poll loop until the context is cancelled.
// API failures back off exponentially and are never fatal.
func (t *Tracker) pollChannel(ctx context.Context, ch ChannelConfig) {
	logger := t.logger.With("channel", ch.Name)
	logger.Info("tracking started")

	url := t.cfg.channelURL(ch.ID)
	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: time.Second,
		MaxBackoff: time.Minute,
	})

	var current nowPlaying
	var seen bool

	for ctx.Err() == nil {
		payload, err := t.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("now-playing fetch failed", "err", err)
			boff.Wait()
			continue
		}
		boff.Reset()

		if !seen || !payload.same(current) {
			current = payload
			seen = true
			if payload.valid() {
				t.recordPlay(ctx, ch, payload, logger)
			} else {
				logger.Debug("incomplete track payload", "artist", payload.Artist, "title", payload.Title)
			}
		}

		select {
		case <-time.After(payload.wait(t.cfg.PollInterval)):
		case <-ctx.Done():
		}
	}

	logger.Info("tracking stopped")
}

// recordPlay persists one observed track change.
func (t *Tracker) recordPlay(ctx context.Context, ch ChannelConfig, p nowPlaying, logger *slog.Logger) {
	track := &Track{
		Artist: p.Artist,
		Title:  p.Title,
		Album:  p.Album,
		Year:   p.year(),
		Cover:  p.Cover,
	}
	if err := t.store.FindOrCreateTrack(ctx, track); err != nil {
		logger.Warn("error resolving track", "err", err)
		return
	}

	logger.Info("now playing", "track", track.ID, "artist", track.Artist, "title", track.Title)

	if err := t.store.MarkPlayed(ctx, ch.ID, track.ID); err != nil {
		logger.Warn("error marking played", "err", err)
	}
	if err := t.store.AppendPlaylist(ctx, ch.ID, track.ID, time.Now().UTC()); err != nil {
		logger.Warn("error appending playlist", "err", err)
	}

	if p.Cover != "" && p.Cover != track.Cover {
		logger.Info("updating cover", "track", track.ID)
		if err := t.store.UpdateCover(ctx, track.ID, p.Cover); err != nil {
			logger.Warn("error updating cover", "err", err)
		}
	}
}
