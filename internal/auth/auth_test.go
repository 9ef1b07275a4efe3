package auth

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

var now = time.UnixMilli(1_700_000_000_000)

func TestNewEmailIdentityAllowList(t *testing.T) {
	user, err := NewEmailIdentity("", "user@hotmail.com", now)
	if err != nil {
		t.Fatalf("expected hotmail to be accepted: %v", err)
	}
	want := models.User{
		ID:          "1700000000000",
		Name:        "user",
		Email:       "user@hotmail.com",
		Avatar:      "https://api.dicebear.com/7.x/avataaars/svg?seed=user",
		Banner:      defaultBanner,
		Subscribers: "0",
	}
	if diff := cmp.Diff(want, user); diff != "" {
		t.Fatalf("unexpected identity (-want +got):\n%s", diff)
	}

	for _, email := range []string{"a@Outlook.com", "b@live.com"} {
		if _, err := NewEmailIdentity("Ana", email, now); err != nil {
			t.Fatalf("expected %s to be accepted: %v", email, err)
		}
	}

	for _, email := range []string{"user@gmail.com", "user@hotmail.com.evil.io", "user@nothotmail.com"} {
		if _, err := NewEmailIdentity("", email, now); !errors.Is(err, ErrEmailDomainNotAllowed) {
			t.Fatalf("expected %s to be rejected with ErrEmailDomainNotAllowed, got %v", email, err)
		}
	}

	if _, err := NewEmailIdentity("", "not-an-email", now); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail got %v", err)
	}
}

func TestNewYouTubeIdentitySkipsChecks(t *testing.T) {
	user := NewYouTubeIdentity(now)
	if user.ID != "yt_1700000000000" || user.Email != "creator@youtube.com" || user.Subscribers != "1.2K" {
		t.Fatalf("unexpected identity %+v", user)
	}
}

func TestManagerLoginRestoreLogout(t *testing.T) {
	store := kv.NewMemoryStore()
	manager := NewManager(store)

	if _, ok := manager.Current(); ok {
		t.Fatal("expected no identity initially")
	}

	user := NewYouTubeIdentity(now)
	if err := manager.Login(context.Background(), user); err != nil {
		t.Fatalf("login: %v", err)
	}

	restored := NewManager(store)
	restored.Restore(context.Background())
	got, ok := restored.Current()
	if !ok {
		t.Fatal("expected identity to be restored")
	}
	if diff := cmp.Diff(user, got); diff != "" {
		t.Fatalf("restored identity mismatch (-want +got):\n%s", diff)
	}

	restored.Logout(context.Background())
	if _, ok := restored.Current(); ok {
		t.Fatal("expected identity cleared")
	}
	if _, err := store.Get(context.Background(), models.KeyCurrentUser); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected persisted identity removed, got %v", err)
	}
}

func TestRestoreIgnoresInvalidRecord(t *testing.T) {
	store := kv.NewMemoryStore()
	for _, raw := range []string{`{"id":`, `{"email":"x@live.com"}`} {
		if err := store.Put(context.Background(), models.KeyCurrentUser, []byte(raw)); err != nil {
			t.Fatalf("put: %v", err)
		}
		manager := NewManager(store)
		manager.Restore(context.Background())
		if _, ok := manager.Current(); ok {
			t.Fatalf("expected %s to be ignored", raw)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	manager := NewManager(kv.NewMemoryStore())
	if _, err := manager.UpdateProfile(context.Background(), ProfileUpdate{Avatar: "a"}); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn got %v", err)
	}

	user, _ := NewEmailIdentity("Ana", "ana@live.com", now)
	_ = manager.Login(context.Background(), user)

	updated, err := manager.UpdateProfile(context.Background(), ProfileUpdate{Banner: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Banner != "data:image/png;base64,AAAA" || updated.Avatar != user.Avatar {
		t.Fatalf("unexpected profile %+v", updated)
	}
}

func TestLogoutDuringSlowLoginWriteStaysSignedOut(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	manager := NewManager(store)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = manager.Login(ctx, NewYouTubeIdentity(now))
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		manager.Logout(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	if _, ok := manager.Current(); ok {
		t.Fatal("expected no identity in memory")
	}
	if _, err := store.Get(ctx, models.KeyCurrentUser); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected no persisted identity, got %v", err)
	}
}
