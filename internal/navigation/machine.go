package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/tasks"
)

// DefaultChannelName is shown when another creator's channel is opened without a name.
const DefaultChannelName = "Creator"

// ErrEmptyAuthor is returned by SelectAuthor for a blank name.
var ErrEmptyAuthor = errors.New("author name is required")

// Identity exposes the signed-in user, if any.
type Identity interface {
	Current() (models.User, bool)
}

// State is the transient navigation state. It is never persisted.
type State struct {
	Active          View   `json:"active"`
	SelectedVideoID string `json:"selectedVideoId,omitempty"`
	ViewedChannel   string `json:"viewedChannel,omitempty"`
	Modals          Modals `json:"modals"`
}

// Frame is the render decision for one committed state.
type Frame struct {
	Seq             uint64 `json:"seq"`
	View            View   `json:"view"`
	Channel         string `json:"channel,omitempty"`
	SelectedVideoID string `json:"selectedVideoId,omitempty"`
	Modals          Modals `json:"modals"`
	Authenticated   bool   `json:"authenticated"`
}

// Machine serialises navigation transitions and publishes each committed
// frame. Side effects requested by Resolve run only after the transition
// that produced them has been committed.
type Machine struct {
	identity Identity
	hub      *Hub
	scopes   map[Modal]*tasks.Scope

	mu    sync.Mutex
	state State
	seq   uint64
}

// NewMachine starts in the splash view with every modal closed.
func NewMachine(identity Identity, hub *Hub) *Machine {
	if hub == nil {
		hub = NewHub()
	}
	return &Machine{
		identity: identity,
		hub:      hub,
		scopes: map[Modal]*tasks.Scope{
			ModalCreate:    tasks.NewScope(string(ModalCreate)),
			ModalTVConnect: tasks.NewScope(string(ModalTVConnect)),
			ModalLogin:     tasks.NewScope(string(ModalLogin)),
		},
		state: State{Active: ViewSplash},
	}
}

// Hub returns the frame publisher.
func (m *Machine) Hub() *Hub {
	return m.hub
}

// Scope returns the task scope owned by modal.
func (m *Machine) Scope(modal Modal) *tasks.Scope {
	return m.scopes[modal]
}

// State returns a snapshot of the raw state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Frame returns the render decision for the current state.
func (m *Machine) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameLocked()
}

// Ready leaves the splash view. Later calls do nothing.
func (m *Machine) Ready(ctx context.Context) Frame {
	m.mu.Lock()
	if m.state.Active == ViewSplash {
		m.state.Active = ViewHome
		m.commitLocked(ctx, "ready")
	}
	f := m.frameLocked()
	m.mu.Unlock()
	return f
}

// Navigate resolves view against the current identity, commits the result,
// then applies the decision's effects.
func (m *Machine) Navigate(ctx context.Context, view View) (Frame, error) {
	if _, ok := views[view]; !ok {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	m.mu.Lock()
	decision := Resolve(view, m.authenticated())
	m.state.Active = decision.View
	m.commitLocked(ctx, "navigate")
	m.mu.Unlock()

	m.apply(ctx, decision.Effects)
	return m.Frame(), nil
}

// SelectVideo opens the detail overlay without changing the view.
func (m *Machine) SelectVideo(ctx context.Context, id string) Frame {
	return m.mutate(ctx, "select_video", func(s *State) { s.SelectedVideoID = id })
}

// CloseVideo clears the detail overlay.
func (m *Machine) CloseVideo(ctx context.Context) Frame {
	return m.mutate(ctx, "close_video", func(s *State) { s.SelectedVideoID = "" })
}

// SelectAuthor opens the signed-in user's own channel when name is theirs,
// and otherwise the named creator's channel.
func (m *Machine) SelectAuthor(ctx context.Context, name string) (Frame, error) {
	if strings.TrimSpace(name) == "" {
		return Frame{}, ErrEmptyAuthor
	}
	user, ok := m.identity.Current()
	return m.mutate(ctx, "select_author", func(s *State) {
		if ok && name == user.Name {
			s.Active = ViewChannel
			return
		}
		s.ViewedChannel = name
		s.Active = ViewViewChannel
	}), nil
}

// LoggedIn moves to the user's channel and hides the login overlay. Pending
// login work is not cancelled since this usually runs as that work's commit.
func (m *Machine) LoggedIn(ctx context.Context) Frame {
	return m.mutate(ctx, "logged_in", func(s *State) {
		s.Modals.Login = false
		s.Active = Resolve(ViewChannel, m.authenticated()).View
	})
}

// LoggedOut returns to home.
func (m *Machine) LoggedOut(ctx context.Context) Frame {
	return m.mutate(ctx, "logged_out", func(s *State) { s.Active = ViewHome })
}

// VideoCreated moves to the shorts feed for a short and home otherwise,
// and hides the create overlay.
func (m *Machine) VideoCreated(ctx context.Context, format models.Format) Frame {
	return m.mutate(ctx, "video_created", func(s *State) {
		s.Modals.Create = false
		if format == models.FormatShort {
			s.Active = ViewShorts
			return
		}
		s.Active = ViewHome
	})
}

// OpenModal shows an overlay.
func (m *Machine) OpenModal(ctx context.Context, modal Modal) Frame {
	return m.mutate(ctx, "open_modal", func(s *State) { s.Modals.set(modal, true) })
}

// CloseModal hides an overlay and cancels the work it owns, so a pending
// login, upload or pairing never lands after dismissal.
func (m *Machine) CloseModal(ctx context.Context, modal Modal) Frame {
	f := m.mutate(ctx, "close_modal", func(s *State) { s.Modals.set(modal, false) })
	if scope := m.scopes[modal]; scope != nil {
		scope.Cancel(ctx)
	}
	return f
}

// Close cancels all modal work and waits for it to settle.
func (m *Machine) Close(ctx context.Context) {
	for _, scope := range m.scopes {
		scope.Cancel(ctx)
	}
	for _, scope := range m.scopes {
		scope.Wait()
	}
}

func (m *Machine) apply(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		switch effect {
		case EffectOpenLogin:
			m.OpenModal(ctx, ModalLogin)
		default:
			logging.FromContext(ctx).Warn("unknown navigation effect", slog.String("effect", string(effect)))
		}
	}
}

func (m *Machine) mutate(ctx context.Context, reason string, fn func(*State)) Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.commitLocked(ctx, reason)
	return m.frameLocked()
}

func (m *Machine) authenticated() bool {
	if m.identity == nil {
		return false
	}
	_, ok := m.identity.Current()
	return ok
}

func (m *Machine) commitLocked(ctx context.Context, reason string) {
	m.seq++
	frame := m.frameLocked()
	metrics.NavigationTransitions.WithLabelValues(string(frame.View)).Inc()
	logging.FromContext(ctx).Debug("navigation committed",
		slog.String("reason", reason),
		slog.String("view", string(frame.View)),
		slog.Uint64("seq", frame.Seq),
	)
	m.hub.Broadcast(frame)
}

// frameLocked never reports a protected view for an anonymous actor, even if
// the identity was cleared after the view was committed.
func (m *Machine) frameLocked() Frame {
	authed := m.authenticated()
	f := Frame{
		Seq:             m.seq,
		View:            Resolve(m.state.Active, authed).View,
		SelectedVideoID: m.state.SelectedVideoID,
		Modals:          m.state.Modals,
		Authenticated:   authed,
	}
	switch f.View {
	case ViewViewChannel:
		f.Channel = m.state.ViewedChannel
		if f.Channel == "" {
			f.Channel = DefaultChannelName
		}
	case ViewChannel:
		if user, ok := m.identity.Current(); ok {
			f.Channel = user.Name
		}
	}
	return f
}
