package handlers

import (
	"net/http"
	"time"

	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/middleware"
)

// MediaPrefix is the URL path under which locally stored uploads are served.
const MediaPrefix = "/media/"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Catalog: deps.Catalog}
	auth := AuthHandler{Identity: deps.Identity, Navigation: deps.Navigation, Delay: deps.LoginDelay, NowFunc: deps.NowFunc}
	videos := VideoHandler{Catalog: deps.Catalog, Identity: deps.Identity, Creator: deps.Creator, NowFunc: deps.NowFunc}
	nav := NavigationHandler{Navigation: deps.Navigation, Catalog: deps.Catalog}
	feed := FeedHandler{Navigation: deps.Navigation}
	tvs := DeviceHandler{Devices: deps.Devices}

	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.Limit(deps.Limiter, scope)(h)
	}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", metrics.Handler())
	if deps.MediaDir != "" {
		mux.Handle("GET "+MediaPrefix, http.StripPrefix(MediaPrefix, http.FileServer(http.Dir(deps.MediaDir))))
	}

	mux.Handle("POST /api/v1/auth/login", limited("login", auth.Login))
	mux.Handle("POST /api/v1/auth/youtube", limited("login", auth.YouTube))
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", auth.Me)
	mux.HandleFunc("PATCH /api/v1/auth/me", auth.UpdateProfile)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/authors", videos.Authors)
	mux.HandleFunc("POST /api/v1/videos/upload", videos.Upload)
	mux.HandleFunc("POST /api/v1/videos/generate", videos.Generate)
	mux.HandleFunc("GET /api/v1/videos/generate", videos.GenerateStatus)
	mux.HandleFunc("GET /api/v1/videos/{id}", videos.Get)
	mux.HandleFunc("GET /api/v1/feeds/{view}", videos.Feed)
	mux.HandleFunc("GET /api/v1/channels/mine", videos.MyChannel)
	mux.HandleFunc("GET /api/v1/channels/{name}", videos.Channel)
	mux.HandleFunc("GET /api/v1/my-videos", videos.MyVideos)

	mux.HandleFunc("GET /api/v1/navigation", nav.Frame)
	mux.HandleFunc("GET /api/v1/navigation/feed", feed.Serve)
	mux.HandleFunc("POST /api/v1/navigation/ready", nav.Ready)
	mux.HandleFunc("POST /api/v1/navigation/author", nav.SelectAuthor)
	mux.HandleFunc("POST /api/v1/navigation/video/{id}", nav.SelectVideo)
	mux.HandleFunc("DELETE /api/v1/navigation/video", nav.CloseVideo)
	mux.HandleFunc("POST /api/v1/navigation/{view}", nav.Navigate)
	mux.HandleFunc("POST /api/v1/modals/{modal}", nav.OpenModal)
	mux.HandleFunc("DELETE /api/v1/modals/{modal}", nav.CloseModal)

	mux.HandleFunc("GET /api/v1/devices", tvs.List)
	mux.Handle("POST /api/v1/devices", limited("pairing", tvs.Pair))
	mux.HandleFunc("GET /api/v1/devices/pairing", tvs.Status)
	mux.HandleFunc("DELETE /api/v1/devices/{id}", tvs.Remove)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Catalog    CatalogStore
	Identity   IdentityManager
	Navigation Navigator
	Creator    Creator
	Devices    DeviceRegistry
	Limiter    middleware.RateLimiter
	LoginDelay time.Duration
	MediaDir   string
	NowFunc    func() time.Time
}
