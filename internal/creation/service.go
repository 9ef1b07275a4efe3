// Package creation turns an upload or a generation result into a catalog entry.
package creation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/generation"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/storage"
	"github.com/veotube/backend/internal/tasks"
)

const (
	// DefaultAuthor is credited when nobody is signed in.
	DefaultAuthor = "You"

	generatedLinkLabel = "View Product"
	uploadedLinkLabel  = "View Link"

	maxInlineImage = 2 << 20
)

// ErrInvalidSubmission is returned for submissions missing required fields.
var ErrInvalidSubmission = errors.New("invalid submission")

// Submission is everything needed to publish one video.
type Submission struct {
	MediaURL       string        `json:"mediaUrl"`
	Title          string        `json:"title"`
	Format         models.Format `json:"format"`
	Description    string        `json:"description"`
	AffiliateURL   string        `json:"affiliateUrl"`
	AffiliateLabel string        `json:"affiliateLabel"`
	ThumbnailURL   string        `json:"thumbnailUrl"`
}

// Validate checks the required fields.
func (s Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidSubmission)
	case strings.TrimSpace(s.MediaURL) == "":
		return fmt.Errorf("%w: media url is required", ErrInvalidSubmission)
	case !s.Format.Valid():
		return fmt.Errorf("%w: unknown format %q", ErrInvalidSubmission, s.Format)
	}
	return nil
}

// File is an uploaded asset.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Catalog receives published videos.
type Catalog interface {
	Append(ctx context.Context, v models.Video) error
}

// Identity exposes the signed-in user.
type Identity interface {
	Current() (models.User, bool)
}

// Navigator is told about successful creations.
type Navigator interface {
	VideoCreated(ctx context.Context, format models.Format) navigation.Frame
}

// Generator renders a prompt into a media URI.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (string, error)
}

// Status is the state of the most recent generation.
type Status struct {
	Status  models.GenerationStatus `json:"status"`
	Error   string                  `json:"error,omitempty"`
	VideoID string                  `json:"videoId,omitempty"`
}

// Service publishes videos. Uploads and generations run as tasks of the
// create modal, so dismissing the modal abandons them.
type Service struct {
	catalog      Catalog
	identity     Identity
	nav          Navigator
	generator    Generator
	assets       storage.AssetStorage
	inlineImages bool
	scope        *tasks.Scope
	uploadDelay  time.Duration
	now          func() time.Time

	mu      sync.Mutex
	status  Status
	genTask *tasks.Task
	// gen identifies the newest generation; older runs may not touch status.
	gen uint64
}

// Config collects the service's collaborators.
type Config struct {
	Catalog   Catalog
	Identity  Identity
	Navigator Navigator
	Generator Generator
	Assets    storage.AssetStorage
	// InlineImages stores thumbnails as data URIs instead of in Assets.
	InlineImages bool
	Scope        *tasks.Scope
	UploadDelay  time.Duration
	Now          func() time.Time
}

// NewService builds a Service.
func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	scope := cfg.Scope
	if scope == nil {
		scope = tasks.NewScope(string(navigation.ModalCreate))
	}
	return &Service{
		catalog:      cfg.Catalog,
		identity:     cfg.Identity,
		nav:          cfg.Navigator,
		generator:    cfg.Generator,
		assets:       cfg.Assets,
		inlineImages: cfg.InlineImages,
		scope:        scope,
		uploadDelay:  cfg.UploadDelay,
		now:          now,
		status:       Status{Status: models.StatusIdle},
	}
}

// Publish validates sub, appends the video at the head of the catalog and
// moves navigation to the feed matching its format.
func (s *Service) Publish(ctx context.Context, sub Submission) (models.Video, error) {
	video, err := s.build(sub, uploadedLinkLabel)
	if err != nil {
		return models.Video{}, err
	}
	if err := s.commit(ctx, video); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func (s *Service) build(sub Submission, defaultLabel string) (models.Video, error) {
	if err := sub.Validate(); err != nil {
		return models.Video{}, err
	}

	now := s.now()
	video := models.Video{
		ID:           catalog.NextID(now),
		URL:          strings.TrimSpace(sub.MediaURL),
		ThumbnailURL: strings.TrimSpace(sub.ThumbnailURL),
		Prompt:       strings.TrimSpace(sub.Title),
		Description:  strings.TrimSpace(sub.Description),
		Format:       sub.Format,
		Status:       models.StatusCompleted,
		CreatedAt:    now.UnixMilli(),
		Likes:        0,
		Views:        "0",
		Author:       DefaultAuthor,
	}
	if link := strings.TrimSpace(sub.AffiliateURL); link != "" {
		label := strings.TrimSpace(sub.AffiliateLabel)
		if label == "" {
			label = defaultLabel
		}
		video.AffiliateLink = &models.AffiliateLink{URL: link, Label: label}
	}
	if s.identity != nil {
		if user, ok := s.identity.Current(); ok {
			video.Author = user.Name
			video.AuthorID = user.ID
			video.AuthorAvatar = user.Avatar
		}
	}
	return video, nil
}

func (s *Service) commit(ctx context.Context, video models.Video) error {
	if err := s.catalog.Append(ctx, video); err != nil {
		return err
	}
	if s.nav != nil {
		s.nav.VideoCreated(ctx, video.Format)
	}
	logging.FromContext(ctx).Info("video published",
		slog.String("video_id", video.ID),
		slog.String("format", video.Format.Name()),
	)
	return nil
}

// Upload stores media and an optional thumbnail, then publishes after the
// upload delay. The returned video is what will be appended if the task is
// not cancelled first.
func (s *Service) Upload(ctx context.Context, media File, thumbnail *File, sub Submission) (models.Video, *tasks.Task, error) {
	if s.assets == nil {
		return models.Video{}, nil, errors.New("asset storage is not configured")
	}
	if media.Body == nil {
		return models.Video{}, nil, fmt.Errorf("%w: media file is required", ErrInvalidSubmission)
	}

	id := catalog.NextID(s.now())
	mediaURL, err := s.assets.Save(ctx, id+extension(media.Name, ".mp4"), media.ContentType, media.Body)
	if err != nil {
		return models.Video{}, nil, fmt.Errorf("store media: %w", err)
	}
	sub.MediaURL = mediaURL

	if thumbnail != nil && thumbnail.Body != nil {
		thumbURL, err := s.saveImage(ctx, id+"-thumb"+extension(thumbnail.Name, ".jpg"), *thumbnail)
		if err != nil {
			return models.Video{}, nil, fmt.Errorf("store thumbnail: %w", err)
		}
		sub.ThumbnailURL = thumbURL
	}

	video, err := s.build(sub, uploadedLinkLabel)
	if err != nil {
		return models.Video{}, nil, err
	}

	task := s.scope.Go(ctx, s.uploadDelay, func(ctx context.Context) (func(), error) {
		return func() {
			if err := s.commit(ctx, video); err != nil {
				logging.FromContext(ctx).Warn("publish upload", slog.String("error", err.Error()))
			}
		}, nil
	})
	return video, task, nil
}

func (s *Service) saveImage(ctx context.Context, name string, f File) (string, error) {
	if s.inlineImages {
		return storage.DataURI(f.ContentType, f.Body, maxInlineImage)
	}
	return s.assets.Save(ctx, name, f.ContentType, f.Body)
}

// GenerateRequest asks the generator for a new video.
type GenerateRequest struct {
	Prompt         string        `json:"prompt"`
	Format         models.Format `json:"format"`
	Description    string        `json:"description"`
	AffiliateURL   string        `json:"affiliateUrl"`
	AffiliateLabel string        `json:"affiliateLabel"`
}

// Generate starts a generation in the background. On failure the status
// carries the backend's message verbatim; nothing is retried.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*tasks.Task, error) {
	if s.generator == nil {
		return nil, generation.ErrDisabled
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidSubmission)
	}
	if !req.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidSubmission, req.Format)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.status = Status{Status: models.StatusGenerating}
	s.genTask = nil
	s.mu.Unlock()

	task := s.scope.Go(ctx, 0, func(ctx context.Context) (func(), error) {
		uri, err := s.generator.Generate(ctx, generation.Request{Prompt: req.Prompt, Format: req.Format})
		if err != nil {
			if ctx.Err() == nil {
				s.setStatus(gen, Status{Status: models.StatusFailed, Error: err.Error()})
			}
			return nil, err
		}

		video, err := s.build(Submission{
			MediaURL:       uri,
			Title:          req.Prompt,
			Format:         req.Format,
			Description:    req.Description,
			AffiliateURL:   req.AffiliateURL,
			AffiliateLabel: req.AffiliateLabel,
		}, generatedLinkLabel)
		if err != nil {
			s.setStatus(gen, Status{Status: models.StatusFailed, Error: err.Error()})
			return nil, err
		}

		return func() {
			if err := s.commit(ctx, video); err != nil {
				s.setStatus(gen, Status{Status: models.StatusFailed, Error: err.Error()})
				return
			}
			s.setStatus(gen, Status{Status: models.StatusCompleted, VideoID: video.ID})
		}, nil
	})

	s.mu.Lock()
	if s.gen == gen {
		s.genTask = task
	}
	s.mu.Unlock()
	return task, nil
}

// Status reports the most recent generation. A generation abandoned by
// closing the create modal reads as idle.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Status == models.StatusGenerating && s.genTask != nil {
		select {
		case <-s.genTask.Done():
			s.status = Status{Status: models.StatusIdle}
		default:
		}
	}
	return s.status
}

// setStatus records st unless a newer generation has started since gen.
func (s *Service) setStatus(gen uint64, st Status) {
	s.mu.Lock()
	if s.gen == gen {
		s.status = st
	}
	s.mu.Unlock()
}

func extension(name, fallback string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 8 {
		return fallback
	}
	return ext
}
