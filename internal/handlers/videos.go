package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/creation"
	"github.com/veotube/backend/internal/filter"
	"github.com/veotube/backend/internal/generation"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/storage"
	"github.com/veotube/backend/internal/tasks"
)

const maxUploadMemory = 32 << 20

// VideoHandler serves catalog queries and the creation flow.
type VideoHandler struct {
	Catalog  CatalogStore
	Identity IdentityManager
	Creator  Creator
	NowFunc  func() time.Time
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

// List handles GET /api/v1/videos?q=&author=&date=&format=.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	criteria, err := filter.ParseCriteria(r.URL.Query())
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.FilterQueries.Inc()
	respondJSON(ctx, w, http.StatusOK, filter.Apply(h.Catalog.All(), criteria, h.now()))
}

// Authors handles GET /api/v1/videos/authors.
func (h VideoHandler) Authors(w http.ResponseWriter, r *http.Request) {
	authors := append([]string{filter.All}, filter.Authors(h.Catalog.All())...)
	respondJSON(r.Context(), w, http.StatusOK, map[string][]string{"authors": authors})
}

// Get handles GET /api/v1/videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Catalog.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// Feed handles GET /api/v1/feeds/{view}: the list a view renders.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := navigation.ParseView(r.PathValue("view"))
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, err.Error())
		return
	}

	user, authed := h.Identity.Current()
	if view.Protected() && !authed {
		respondError(ctx, w, http.StatusUnauthorized, "sign in to see this view")
		return
	}

	switch view {
	case navigation.ViewCourses:
		respondJSON(ctx, w, http.StatusOK, feedResponse{View: view, Videos: []models.Video{}, Courses: catalog.SeedCourses()})
		return
	case navigation.ViewPodcasts:
		respondJSON(ctx, w, http.StatusOK, feedResponse{View: view, Videos: []models.Video{}, Episodes: catalog.SeedEpisodes()})
		return
	}

	var videos []models.Video
	switch view {
	case navigation.ViewVideos:
		videos = h.Catalog.ByFormat(models.FormatLandscape)
	case navigation.ViewShorts:
		videos = h.Catalog.ByFormat(models.FormatShort)
	case navigation.ViewMyVideos:
		videos = h.Catalog.ByAuthorID(user.ID)
	case navigation.ViewChannel:
		videos = h.Catalog.ByChannel(user)
	case navigation.ViewViewChannel:
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = navigation.DefaultChannelName
		}
		videos = h.Catalog.ByChannel(models.User{Name: name})
	default:
		videos = h.Catalog.All()
	}
	respondJSON(ctx, w, http.StatusOK, feedResponse{View: view, Videos: videos})
}

// feedResponse is the body of GET /api/v1/feeds/{view}. The courses and
// podcasts views list their own entries instead of videos.
type feedResponse struct {
	View     navigation.View  `json:"view"`
	Videos   []models.Video   `json:"videos"`
	Courses  []models.Course  `json:"courses,omitempty"`
	Episodes []models.Episode `json:"episodes,omitempty"`
}

type channelResponse struct {
	Name        string         `json:"name"`
	Avatar      string         `json:"avatar,omitempty"`
	Banner      string         `json:"banner,omitempty"`
	Subscribers string         `json:"subscribers"`
	Own         bool           `json:"own"`
	Videos      []models.Video `json:"videos"`
}

// MyChannel handles GET /api/v1/channels/mine.
func (h VideoHandler) MyChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := h.Identity.Current()
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "sign in to see your channel")
		return
	}
	respondJSON(ctx, w, http.StatusOK, channelResponse{
		Name:        user.Name,
		Avatar:      user.Avatar,
		Banner:      user.Banner,
		Subscribers: user.Subscribers,
		Own:         true,
		Videos:      h.Catalog.ByChannel(user),
	})
}

const (
	otherChannelSubscribers = "12K"
	otherChannelBanner      = "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=2564&auto=format&fit=crop"
)

// Channel handles GET /api/v1/channels/{name}.
func (h VideoHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		name = navigation.DefaultChannelName
	}

	if user, ok := h.Identity.Current(); ok && user.Name == name {
		h.MyChannel(w, r)
		return
	}

	respondJSON(ctx, w, http.StatusOK, channelResponse{
		Name:        name,
		Banner:      otherChannelBanner,
		Subscribers: otherChannelSubscribers,
		Videos:      h.Catalog.ByChannel(models.User{Name: name}),
	})
}

// MyVideos handles GET /api/v1/my-videos.
func (h VideoHandler) MyVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := h.Identity.Current()
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "sign in to see your videos")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": h.Catalog.ByAuthorID(user.ID)})
}

type publishRequest struct {
	MediaURL       string `json:"mediaUrl"`
	Title          string `json:"title"`
	Format         string `json:"format"`
	Description    string `json:"description"`
	AffiliateURL   string `json:"affiliateUrl"`
	AffiliateLabel string `json:"affiliateLabel"`
	ThumbnailURL   string `json:"thumbnailUrl"`
}

func (p publishRequest) submission() (creation.Submission, error) {
	format := models.FormatLandscape
	if strings.TrimSpace(p.Format) != "" {
		parsed, err := models.ParseFormat(p.Format)
		if err != nil {
			return creation.Submission{}, err
		}
		format = parsed
	}
	return creation.Submission{
		MediaURL:       p.MediaURL,
		Title:          p.Title,
		Format:         format,
		Description:    p.Description,
		AffiliateURL:   p.AffiliateURL,
		AffiliateLabel: p.AffiliateLabel,
		ThumbnailURL:   p.ThumbnailURL,
	}, nil
}

// Publish handles POST /api/v1/videos with a JSON submission whose media
// is already addressable by URL.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := req.submission()
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	video, err := h.Creator.Publish(ctx, sub)
	if err != nil {
		h.creationError(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, video)
}

// Upload handles POST /api/v1/videos/upload (multipart: media, thumbnail,
// title, format, description, affiliateUrl, affiliateLabel). The response is
// sent once the simulated upload finishes; closing the create modal first
// yields 409.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	media, mediaHeader, err := r.FormFile("media")
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, "media file is required")
		return
	}
	defer media.Close()

	var thumb *creation.File
	if f, header, err := r.FormFile("thumbnail"); err == nil {
		defer f.Close()
		thumb = fileFrom(f, header)
	}

	sub, err := publishRequest{
		Title:          r.FormValue("title"),
		Format:         r.FormValue("format"),
		Description:    r.FormValue("description"),
		AffiliateURL:   r.FormValue("affiliateUrl"),
		AffiliateLabel: r.FormValue("affiliateLabel"),
	}.submission()
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	video, task, err := h.Creator.Upload(ctx, *fileFrom(media, mediaHeader), thumb, sub)
	if err != nil {
		h.creationError(w, r, err)
		return
	}

	if err := task.Wait(ctx); err != nil {
		h.creationError(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, video)
}

func fileFrom(f multipart.File, header *multipart.FileHeader) *creation.File {
	return &creation.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	Format         string `json:"format"`
	Description    string `json:"description"`
	AffiliateURL   string `json:"affiliateUrl"`
	AffiliateLabel string `json:"affiliateLabel"`
}

// Generate handles POST /api/v1/videos/generate. Generation runs in the
// background; poll GenerateStatus for the outcome.
func (h VideoHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	format := models.FormatLandscape
	if strings.TrimSpace(req.Format) != "" {
		parsed, err := models.ParseFormat(req.Format)
		if err != nil {
			respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		format = parsed
	}

	if _, err := h.Creator.Generate(ctx, creation.GenerateRequest{
		Prompt:         req.Prompt,
		Format:         format,
		Description:    req.Description,
		AffiliateURL:   req.AffiliateURL,
		AffiliateLabel: req.AffiliateLabel,
	}); err != nil {
		h.creationError(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusAccepted, h.Creator.Status())
}

// GenerateStatus handles GET /api/v1/videos/generate.
func (h VideoHandler) GenerateStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Creator.Status())
}

func (h VideoHandler) creationError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, creation.ErrInvalidSubmission), errors.Is(err, models.ErrInvalidRecord):
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		respondError(ctx, w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, tasks.ErrCancelled):
		respondError(ctx, w, http.StatusConflict, "creation was dismissed before it finished")
	case errors.Is(err, generation.ErrDisabled):
		respondError(ctx, w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, generation.ErrGenerationFailed):
		respondError(ctx, w, http.StatusBadGateway, err.Error())
	default:
		respondError(ctx, w, http.StatusInternalServerError, "failed to create video")
	}
}
