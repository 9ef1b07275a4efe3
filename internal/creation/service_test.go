package creation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/generation"
	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/storage"
	"github.com/veotube/backend/internal/tasks"
)

var now = time.UnixMilli(1_700_000_000_000)

type staticIdentity struct{ user *models.User }

func (s staticIdentity) Current() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

type recordingNav struct {
	mu      sync.Mutex
	formats []models.Format
}

func (r *recordingNav) VideoCreated(_ context.Context, format models.Format) navigation.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats = append(r.formats, format)
	return navigation.Frame{}
}

type fakeGenerator struct {
	uri string
	err error
}

func (f fakeGenerator) Generate(context.Context, generation.Request) (string, error) {
	return f.uri, f.err
}

func newService(t *testing.T, identity Identity, gen Generator) (*Service, *catalog.Store, *recordingNav, string) {
	t.Helper()
	store := catalog.New(kv.NewMemoryStore(), catalog.WithClock(func() time.Time { return now }))
	store.Initialize(context.Background())

	dir := t.TempDir()
	assets, err := storage.NewLocalStorage(dir, "/media")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	nav := &recordingNav{}
	svc := NewService(Config{
		Catalog:      store,
		Identity:     identity,
		Navigator:    nav,
		Generator:    gen,
		Assets:       assets,
		InlineImages: true,
		Scope:        tasks.NewScope("create"),
		Now:          func() time.Time { return now },
	})
	return svc, store, nav, dir
}

func TestPublishAnonymous(t *testing.T) {
	svc, store, nav, _ := newService(t, staticIdentity{}, nil)

	video, err := svc.Publish(context.Background(), Submission{
		MediaURL:     "https://example.com/a.mp4",
		Title:        "Sunset",
		Format:       models.FormatShort,
		AffiliateURL: "https://example.com/p",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if video.ID != "1700000000000" || video.Author != DefaultAuthor || video.Views != "0" || video.Likes != 0 {
		t.Fatalf("unexpected video %+v", video)
	}
	if video.AffiliateLink == nil || video.AffiliateLink.Label != "View Link" {
		t.Fatalf("expected default link label got %+v", video.AffiliateLink)
	}
	if all := store.All(); all[0].ID != video.ID {
		t.Fatal("expected video at head of catalog")
	}
	if len(nav.formats) != 1 || nav.formats[0] != models.FormatShort {
		t.Fatalf("expected navigation to be told about a short, got %v", nav.formats)
	}
}

func TestPublishCreditsSignedInUser(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Ana", Avatar: "https://example.com/ana.png"}
	svc, _, _, _ := newService(t, staticIdentity{user: user}, nil)

	video, err := svc.Publish(context.Background(), Submission{MediaURL: "m", Title: "t", Format: models.FormatLandscape})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if video.Author != "Ana" || video.AuthorID != "u1" || video.AuthorAvatar != user.Avatar {
		t.Fatalf("unexpected attribution %+v", video)
	}
}

func TestPublishValidation(t *testing.T) {
	svc, store, nav, _ := newService(t, staticIdentity{}, nil)

	for _, sub := range []Submission{
		{MediaURL: "m", Format: models.FormatShort},
		{Title: "t", Format: models.FormatShort},
		{MediaURL: "m", Title: "t", Format: "4:3"},
	} {
		if _, err := svc.Publish(context.Background(), sub); !errors.Is(err, ErrInvalidSubmission) {
			t.Fatalf("expected ErrInvalidSubmission for %+v got %v", sub, err)
		}
	}
	if store.Len() != 3 || len(nav.formats) != 0 {
		t.Fatal("expected no side effects for invalid submissions")
	}
}

func TestUploadPublishesAfterDelay(t *testing.T) {
	svc, store, _, _ := newService(t, staticIdentity{}, nil)

	video, task, err := svc.Upload(context.Background(),
		File{Name: "clip.MP4", ContentType: "video/mp4", Body: strings.NewReader("frames")},
		&File{Name: "thumb.png", ContentType: "image/png", Body: strings.NewReader("abc")},
		Submission{Title: "Clip", Format: models.FormatLandscape},
	)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if video.URL != "/media/1700000000000.mp4" || video.ThumbnailURL != "data:image/png;base64,YWJj" {
		t.Fatalf("unexpected asset urls %+v", video)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if _, err := store.Get(video.ID); err != nil {
		t.Fatalf("expected uploaded video in catalog: %v", err)
	}
}

func TestUploadCancelledByModalClose(t *testing.T) {
	svc, store, nav, _ := newService(t, staticIdentity{}, nil)
	svc.uploadDelay = time.Hour

	_, task, err := svc.Upload(context.Background(),
		File{Name: "clip.mp4", Body: strings.NewReader("frames")}, nil,
		Submission{Title: "Clip", Format: models.FormatShort},
	)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	svc.scope.Cancel(context.Background())
	if err := task.Wait(context.Background()); !errors.Is(err, tasks.ErrCancelled) {
		t.Fatalf("expected ErrCancelled got %v", err)
	}
	if store.Len() != 3 || len(nav.formats) != 0 {
		t.Fatal("cancelled upload must not publish")
	}
}

func TestGenerateSuccess(t *testing.T) {
	svc, store, nav, _ := newService(t, staticIdentity{}, fakeGenerator{uri: "https://files.example.com/v.mp4?key=k"})

	task, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:       "a cat surfing",
		Format:       models.FormatShort,
		AffiliateURL: "https://example.com/board",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	status := svc.Status()
	if status.Status != models.StatusCompleted || status.VideoID == "" {
		t.Fatalf("unexpected status %+v", status)
	}
	video, err := store.Get(status.VideoID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if video.Prompt != "a cat surfing" || video.AffiliateLink.Label != "View Product" {
		t.Fatalf("unexpected generated video %+v", video)
	}
	if nav.formats[0] != models.FormatShort {
		t.Fatal("expected navigation to shorts")
	}
}

func TestGenerateFailureIsVerbatim(t *testing.T) {
	backendErr := &generation.Error{Message: "Prompt violates the usage policy."}
	svc, store, _, _ := newService(t, staticIdentity{}, fakeGenerator{err: backendErr})

	task, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "bad", Format: models.FormatLandscape})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := task.Wait(context.Background()); !errors.Is(err, generation.ErrGenerationFailed) {
		t.Fatalf("expected generation failure got %v", err)
	}

	status := svc.Status()
	if status.Status != models.StatusFailed || status.Error != "Prompt violates the usage policy." {
		t.Fatalf("unexpected status %+v", status)
	}
	if store.Len() != 3 {
		t.Fatal("failed generation must not publish")
	}
}

func TestGenerateRequiresGenerator(t *testing.T) {
	svc, _, _, _ := newService(t, staticIdentity{}, nil)
	if _, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "p", Format: models.FormatShort}); !errors.Is(err, generation.ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
}

// promptGenerator fails prompts listed in held once their channel closes
// and succeeds immediately for everything else.
type promptGenerator struct {
	held map[string]chan struct{}
}

func (p promptGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	if gate, ok := p.held[req.Prompt]; ok {
		<-gate
		return "", &generation.Error{Message: "quota exhausted"}
	}
	return "https://files.example.com/" + req.Prompt + ".mp4", nil
}

func TestSupersededGenerationCannotOverwriteStatus(t *testing.T) {
	gate := make(chan struct{})
	svc, _, _, _ := newService(t, staticIdentity{}, promptGenerator{held: map[string]chan struct{}{"first": gate}})

	first, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "first", Format: models.FormatShort})
	if err != nil {
		t.Fatalf("generate first: %v", err)
	}
	second, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "second", Format: models.FormatShort})
	if err != nil {
		t.Fatalf("generate second: %v", err)
	}
	if err := second.Wait(context.Background()); err != nil {
		t.Fatalf("wait second: %v", err)
	}
	completed := svc.Status()
	if completed.Status != models.StatusCompleted {
		t.Fatalf("unexpected status %+v", completed)
	}

	close(gate)
	if err := first.Wait(context.Background()); !errors.Is(err, generation.ErrGenerationFailed) {
		t.Fatalf("expected first generation to fail got %v", err)
	}
	if got := svc.Status(); got != completed {
		t.Fatalf("superseded failure overwrote status: %+v", got)
	}
}
