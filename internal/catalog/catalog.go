// Package catalog owns the ordered collection of videos for the session.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("video not found")

// Store is the authoritative, most-recent-first list of videos. Every
// mutation is mirrored to the key-value store before it returns.
type Store struct {
	kv  kv.Store
	now func() time.Time

	// writeMu orders mutations with their snapshot writes so the store
	// never receives an older snapshot after a newer one.
	writeMu sync.Mutex

	mu     sync.RWMutex
	videos []models.Video
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for seeds and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store backed by store. Call Initialize before use.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{kv: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted snapshot, falling back to the seed set when
// the snapshot is missing, unreadable, malformed, or holds invalid records.
func (s *Store) Initialize(ctx context.Context) {
	logger := logging.FromContext(ctx)

	videos, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			metrics.PersistenceErrors.WithLabelValues(models.KeyVideos, "load").Inc()
			logger.Warn("discarding persisted catalog", slog.String("error", err.Error()))
		}
		metrics.SeedFallbacks.Inc()
		videos = SeedVideos(s.now())
	}

	s.mu.Lock()
	s.videos = videos
	s.mu.Unlock()

	logger.Info("catalog initialized", slog.Int("videos", len(videos)))
}

func (s *Store) load(ctx context.Context) ([]models.Video, error) {
	raw, err := s.kv.Get(ctx, models.KeyVideos)
	if err != nil {
		return nil, err
	}

	var videos []models.Video
	if err := json.Unmarshal(raw, &videos); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	if videos == nil {
		return nil, fmt.Errorf("%w: catalog snapshot is not an array", models.ErrInvalidRecord)
	}

	seen := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate video id %s", models.ErrInvalidRecord, v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return videos, nil
}

// Append inserts v at the head of the catalog and persists the result.
// Only an invalid record is reported; persistence failures are logged.
func (s *Store) Append(ctx context.Context, v models.Video) error {
	if err := v.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := make([]models.Video, 0, len(s.videos)+1)
	next = append(next, v)
	next = append(next, s.videos...)
	s.videos = next
	snapshot := s.videos
	s.mu.Unlock()

	metrics.CatalogAppends.Inc()
	s.persist(ctx, snapshot)
	return nil
}

// Reset replaces the catalog with the seed set. Unlike Append it reports
// persistence failures, since it backs the seed command.
func (s *Store) Reset(ctx context.Context) error {
	videos := SeedVideos(s.now())

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.videos = videos
	s.mu.Unlock()

	return s.write(ctx, videos)
}

func (s *Store) persist(ctx context.Context, videos []models.Video) {
	if err := s.write(ctx, videos); err != nil {
		metrics.PersistenceErrors.WithLabelValues(models.KeyVideos, "save").Inc()
		logging.FromContext(ctx).Warn("persist catalog", slog.String("error", err.Error()))
	}
}

func (s *Store) write(ctx context.Context, videos []models.Video) error {
	raw, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	return s.kv.Put(ctx, models.KeyVideos, raw)
}

// All returns a copy of the catalog in order.
func (s *Store) All() []models.Video {
	return s.where(func(models.Video) bool { return true })
}

// ByAuthorID returns the videos created by the identity with id.
func (s *Store) ByAuthorID(id string) []models.Video {
	return s.where(func(v models.Video) bool { return v.AuthorID == id })
}

// ByAuthorName returns the videos whose author display name equals name.
func (s *Store) ByAuthorName(name string) []models.Video {
	return s.where(func(v models.Video) bool { return v.Author == name })
}

// ByFormat returns the videos of one format.
func (s *Store) ByFormat(format models.Format) []models.Video {
	return s.where(func(v models.Video) bool { return v.Format == format })
}

// ByChannel lists a user's own channel: videos they authored by id, plus
// videos published under their display name.
func (s *Store) ByChannel(user models.User) []models.Video {
	return s.where(func(v models.Video) bool {
		return (user.ID != "" && v.AuthorID == user.ID) || v.Author == user.Name
	})
}

// Get looks a video up by id.
func (s *Store) Get(id string) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.videos {
		if v.ID == id {
			return cloneVideo(v), nil
		}
	}
	return models.Video{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Len reports the catalog size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// NextID returns the id for a video created at now: its epoch milliseconds.
// Two creations in the same millisecond collide.
func NextID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

func (s *Store) where(keep func(models.Video) bool) []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if keep(v) {
			out = append(out, cloneVideo(v))
		}
	}
	return out
}

func cloneVideo(v models.Video) models.Video {
	if v.AffiliateLink != nil {
		link := *v.AffiliateLink
		v.AffiliateLink = &link
	}
	return v
}
