package devices

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/tasks"
)

func TestPairAddsDeviceAtHead(t *testing.T) {
	store := kv.NewMemoryStore()
	registry := NewRegistry(store, tasks.NewScope("tv"), 0)
	registry.Load(context.Background())

	for i := 0; i < 2; i++ {
		pairing, task := registry.Pair(context.Background())
		if len(pairing.Code) != 6 {
			t.Fatalf("expected six digit code got %q", pairing.Code)
		}
		if err := task.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	devices := registry.List()
	if len(devices) != 2 || devices[0].Name != "Smart TV 2" || devices[1].Name != "Smart TV 1" {
		t.Fatalf("unexpected devices %+v", devices)
	}
	status := registry.Status()
	if status.State != PairingSuccess || status.Device == nil || status.Device.ID != devices[0].ID {
		t.Fatalf("unexpected status %+v", status)
	}

	reloaded := NewRegistry(store, tasks.NewScope("tv"), 0)
	reloaded.Load(context.Background())
	if diff := cmp.Diff(devices, reloaded.List()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelledPairingDoesNotAddDevice(t *testing.T) {
	scope := tasks.NewScope("tv")
	registry := NewRegistry(kv.NewMemoryStore(), scope, time.Hour)

	pairing, task := registry.Pair(context.Background())
	if pairing.State != PairingConnecting {
		t.Fatalf("expected connecting got %s", pairing.State)
	}

	scope.Cancel(context.Background())
	if err := task.Wait(context.Background()); !errors.Is(err, tasks.ErrCancelled) {
		t.Fatalf("expected ErrCancelled got %v", err)
	}
	if len(registry.List()) != 0 {
		t.Fatal("expected no device after cancellation")
	}
	if got := registry.Status().State; got != PairingIdle {
		t.Fatalf("expected idle status got %s", got)
	}
}

func TestRemove(t *testing.T) {
	store := kv.NewMemoryStore()
	raw := []byte(`[{"id":"a","name":"Smart TV 2","lastConnected":2,"code":"222222"},{"id":"b","name":"Smart TV 1","lastConnected":1,"code":"111111"}]`)
	if err := store.Put(context.Background(), models.KeyPairedDevices, raw); err != nil {
		t.Fatalf("put: %v", err)
	}

	registry := NewRegistry(store, tasks.NewScope("tv"), 0)
	registry.Load(context.Background())

	if err := registry.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if devices := registry.List(); len(devices) != 1 || devices[0].ID != "b" {
		t.Fatalf("unexpected devices %+v", devices)
	}
	if err := registry.Remove(context.Background(), "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestLoadDiscardsInvalidList(t *testing.T) {
	store := kv.NewMemoryStore()
	_ = store.Put(context.Background(), models.KeyPairedDevices, []byte(`[{"id":"","name":""}]`))

	registry := NewRegistry(store, tasks.NewScope("tv"), 0)
	registry.Load(context.Background())
	if len(registry.List()) != 0 {
		t.Fatal("expected invalid list to be discarded")
	}
}

func TestConcurrentRemovesPersistLatestList(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	raw := []byte(`[{"id":"a","name":"Smart TV 2","lastConnected":2,"code":"222222"},{"id":"b","name":"Smart TV 1","lastConnected":1,"code":"111111"}]`)
	if err := store.MemoryStore.Put(ctx, models.KeyPairedDevices, raw); err != nil {
		t.Fatalf("put: %v", err)
	}
	registry := NewRegistry(store, tasks.NewScope("tv"), 0)
	registry.Load(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = registry.Remove(ctx, "a")
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		_ = registry.Remove(ctx, "b")
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	persisted, err := store.Get(ctx, models.KeyPairedDevices)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var devices []models.PairedDevice
	if err := json.Unmarshal(persisted, &devices); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(devices) != 0 || len(registry.List()) != 0 {
		t.Fatalf("expected every device removed, persisted %+v", devices)
	}
}
