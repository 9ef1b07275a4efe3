// Package devices tracks the TVs paired through the casting flow.
package devices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/tasks"
)

// ErrNotFound is returned when removing an unknown device.
var ErrNotFound = errors.New("device not found")

// PairingState is the progress of the current pairing attempt.
type PairingState string

const (
	PairingIdle       PairingState = "generate"
	PairingConnecting PairingState = "connecting"
	PairingSuccess    PairingState = "success"
)

// Pairing describes the current pairing attempt.
type Pairing struct {
	State  PairingState         `json:"state"`
	Code   string               `json:"code,omitempty"`
	Device *models.PairedDevice `json:"device,omitempty"`
}

// Registry owns the paired device list. Pairing completes after a simulated
// delay inside the TV modal's task scope, so closing the modal abandons it.
type Registry struct {
	store kv.Store
	scope *tasks.Scope
	delay time.Duration
	now   func() time.Time

	// writeMu orders device list changes with their snapshot writes.
	writeMu sync.Mutex

	mu      sync.Mutex
	devices []models.PairedDevice
	pairing Pairing
	task    *tasks.Task
}

// NewRegistry returns an empty registry. Call Load before use.
func NewRegistry(store kv.Store, scope *tasks.Scope, delay time.Duration) *Registry {
	return &Registry{
		store:   store,
		scope:   scope,
		delay:   delay,
		now:     time.Now,
		pairing: Pairing{State: PairingIdle},
	}
}

// Load reads the persisted device list. Invalid data is discarded.
func (r *Registry) Load(ctx context.Context) {
	logger := logging.FromContext(ctx)

	raw, err := r.store.Get(ctx, models.KeyPairedDevices)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			metrics.PersistenceErrors.WithLabelValues(models.KeyPairedDevices, "load").Inc()
			logger.Warn("load paired devices", slog.String("error", err.Error()))
		}
		return
	}

	var devices []models.PairedDevice
	if err := json.Unmarshal(raw, &devices); err != nil {
		logger.Warn("discarding paired devices", slog.String("error", err.Error()))
		return
	}
	for _, d := range devices {
		if err := d.Validate(); err != nil {
			logger.Warn("discarding paired devices", slog.String("error", err.Error()))
			return
		}
	}

	r.mu.Lock()
	r.devices = devices
	r.mu.Unlock()
}

// List returns the paired devices, most recent first.
func (r *Registry) List() []models.PairedDevice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PairedDevice(nil), r.devices...)
}

// Pair shows a fresh six-digit code and schedules the device to appear after
// the pairing delay. A previous unfinished attempt keeps running only until
// its scope is cancelled.
func (r *Registry) Pair(ctx context.Context) (Pairing, *tasks.Task) {
	code := strconv.Itoa(100_000 + rand.IntN(900_000))

	r.mu.Lock()
	r.pairing = Pairing{State: PairingConnecting, Code: code}
	r.mu.Unlock()

	task := r.scope.Go(ctx, r.delay, func(ctx context.Context) (func(), error) {
		return func() { r.complete(ctx, code) }, nil
	})

	r.mu.Lock()
	r.task = task
	pairing := r.pairing
	r.mu.Unlock()

	logging.FromContext(ctx).Info("pairing started", slog.String("code", code))
	return pairing, task
}

func (r *Registry) complete(ctx context.Context, code string) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	device := models.PairedDevice{
		ID:            uuid.NewString(),
		Name:          fmt.Sprintf("Smart TV %d", len(r.devices)+1),
		LastConnected: r.now().UnixMilli(),
		Code:          code,
	}
	r.devices = append([]models.PairedDevice{device}, r.devices...)
	if r.pairing.Code == code {
		r.pairing = Pairing{State: PairingSuccess, Code: code, Device: &device}
	}
	snapshot := append([]models.PairedDevice(nil), r.devices...)
	r.mu.Unlock()

	metrics.Pairings.Inc()
	r.persist(ctx, snapshot)
}

// Status reports the current pairing attempt. An attempt whose task settled
// without committing was cancelled and reads as idle.
func (r *Registry) Status() Pairing {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pairing.State == PairingConnecting && r.task != nil {
		select {
		case <-r.task.Done():
			r.pairing = Pairing{State: PairingIdle}
		default:
		}
	}
	return r.pairing
}

// Remove forgets a device.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	idx := -1
	for i, d := range r.devices {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.devices = append(r.devices[:idx:idx], r.devices[idx+1:]...)
	snapshot := append([]models.PairedDevice(nil), r.devices...)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	return nil
}

func (r *Registry) persist(ctx context.Context, devices []models.PairedDevice) {
	raw, err := json.Marshal(devices)
	if err == nil {
		err = r.store.Put(ctx, models.KeyPairedDevices, raw)
	}
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues(models.KeyPairedDevices, "save").Inc()
		logging.FromContext(ctx).Warn("persist paired devices", slog.String("error", err.Error()))
	}
}
