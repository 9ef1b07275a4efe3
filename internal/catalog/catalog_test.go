package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/models"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func clock() time.Time { return fixedNow }

type failingStore struct {
	kv.Store
	puts int
}

func (f *failingStore) Put(context.Context, string, []byte) error {
	f.puts++
	return errors.New("quota exceeded")
}

func newVideo(id, author string, format models.Format) models.Video {
	return models.Video{
		ID:        id,
		URL:       "https://example.com/" + id + ".mp4",
		Prompt:    "prompt " + id,
		Format:    format,
		Status:    models.StatusCompleted,
		CreatedAt: fixedNow.UnixMilli(),
		Views:     "0",
		Author:    author,
		AuthorID:  "u-" + author,
	}
}

func TestInitializeFallsBackToSeeds(t *testing.T) {
	store := New(kv.NewMemoryStore(), WithClock(clock))
	store.Initialize(context.Background())

	if diff := cmp.Diff(SeedVideos(fixedNow), store.All()); diff != "" {
		t.Fatalf("unexpected catalog (-want +got):\n%s", diff)
	}
}

func TestInitializeRejectsMalformedSnapshot(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"id":`,
		"wrong shape":  `{"id":"1"}`,
		"null":         `null`,
		"bad format":   `[{"id":"9","url":"u","author":"a","format":"4:3","status":"completed"}]`,
		"duplicate id": `[{"id":"9","url":"u","author":"a","format":"16:9","status":"completed"},{"id":"9","url":"u","author":"a","format":"16:9","status":"completed"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			backing := kv.NewMemoryStore()
			if err := backing.Put(context.Background(), models.KeyVideos, []byte(raw)); err != nil {
				t.Fatalf("put: %v", err)
			}
			store := New(backing, WithClock(clock))
			store.Initialize(context.Background())
			if store.Len() != len(SeedVideos(fixedNow)) {
				t.Fatalf("expected seed fallback, got %d videos", store.Len())
			}
		})
	}
}

func TestAppendPersistsAndRoundTrips(t *testing.T) {
	backing := kv.NewMemoryStore()
	store := New(backing, WithClock(clock))
	store.Initialize(context.Background())

	first := newVideo("100", "Ana", models.FormatShort)
	second := newVideo("101", "Bruno", models.FormatLandscape)
	second.AffiliateLink = &models.AffiliateLink{URL: "https://example.com/p", Label: "View Link"}
	for _, v := range []models.Video{first, second} {
		if err := store.Append(context.Background(), v); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all := store.All()
	if all[0].ID != "101" || all[1].ID != "100" {
		t.Fatalf("expected head insertion, got %s then %s", all[0].ID, all[1].ID)
	}

	reloaded := New(backing, WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
	reloaded.Initialize(context.Background())
	if diff := cmp.Diff(all, reloaded.All()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendSwallowsPersistenceErrors(t *testing.T) {
	backing := &failingStore{Store: kv.NewMemoryStore()}
	store := New(backing, WithClock(clock))
	store.Initialize(context.Background())

	if err := store.Append(context.Background(), newVideo("100", "Ana", models.FormatShort)); err != nil {
		t.Fatalf("expected persistence error to be swallowed, got %v", err)
	}
	if backing.puts != 1 {
		t.Fatalf("expected one write attempt got %d", backing.puts)
	}
	if _, err := store.Get("100"); err != nil {
		t.Fatalf("expected in-memory catalog to keep the video: %v", err)
	}
}

func TestAppendRejectsInvalidVideo(t *testing.T) {
	store := New(kv.NewMemoryStore(), WithClock(clock))
	store.Initialize(context.Background())

	err := store.Append(context.Background(), models.Video{ID: "x"})
	if !errors.Is(err, models.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord got %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected catalog unchanged got %d", store.Len())
	}
}

func TestQueries(t *testing.T) {
	store := New(kv.NewMemoryStore(), WithClock(clock))
	store.Initialize(context.Background())

	mine := newVideo("200", "Creator", models.FormatShort)
	mine.AuthorID = "me"
	if err := store.Append(context.Background(), mine); err != nil {
		t.Fatalf("append: %v", err)
	}
	legacy := newVideo("201", "Me", models.FormatLandscape)
	legacy.AuthorID = ""
	if err := store.Append(context.Background(), legacy); err != nil {
		t.Fatalf("append: %v", err)
	}

	if got := store.ByAuthorID("bot2"); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("unexpected ByAuthorID result %+v", got)
	}
	if got := store.ByAuthorName("DreamGen"); len(got) != 1 || got[0].ID != "4" {
		t.Fatalf("unexpected ByAuthorName result %+v", got)
	}
	if got := store.ByFormat(models.FormatShort); len(got) != 2 {
		t.Fatalf("expected two shorts got %d", len(got))
	}

	channel := store.ByChannel(models.User{ID: "me", Name: "Me"})
	if len(channel) != 2 || channel[0].ID != "201" || channel[1].ID != "200" {
		t.Fatalf("unexpected channel listing %+v", channel)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	store := New(kv.NewMemoryStore(), WithClock(clock))
	store.Initialize(context.Background())

	v, err := store.Get("2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	v.AffiliateLink.Label = "changed"
	v.Prompt = "changed"

	again, _ := store.Get("2")
	if again.AffiliateLink.Label != "Aprenda VFX" || again.Prompt == "changed" {
		t.Fatal("expected catalog to be isolated from caller mutations")
	}
}

func TestResetPersistsSeeds(t *testing.T) {
	backing := kv.NewMemoryStore()
	store := New(backing, WithClock(clock))
	store.Initialize(context.Background())
	_ = store.Append(context.Background(), newVideo("300", "Ana", models.FormatShort))

	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected seeds after reset got %d", store.Len())
	}
	if _, err := backing.Get(context.Background(), models.KeyVideos); err != nil {
		t.Fatalf("expected snapshot to be written: %v", err)
	}

	if err := New(&failingStore{Store: kv.NewMemoryStore()}).Reset(context.Background()); err == nil {
		t.Fatal("expected reset to report persistence failure")
	}
}

func TestNextID(t *testing.T) {
	if got := NextID(fixedNow); got != "1700000000000" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestConcurrentAppendsPersistLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	s := New(store, WithClock(clock))
	s.Initialize(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Append(ctx, newVideo("A", "Ana", models.FormatShort))
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		s.Append(ctx, newVideo("B", "Bia", models.FormatShort))
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	reloaded := New(store.MemoryStore, WithClock(clock))
	reloaded.Initialize(ctx)
	if diff := cmp.Diff(s.All(), reloaded.All()); diff != "" {
		t.Fatalf("persisted catalog lags memory (-memory +persisted):\n%s", diff)
	}
}
