// Package navigation holds the single-page view selector and the modal
// overlays layered over it.
package navigation

import (
	"errors"
	"fmt"
	"strings"
)

// View identifies the top-level screen.
type View string

const (
	ViewSplash      View = "splash"
	ViewHome        View = "home"
	ViewExplore     View = "explore"
	ViewShorts      View = "shorts"
	ViewVideos      View = "videos"
	ViewLive        View = "live"
	ViewCourses     View = "courses"
	ViewPodcasts    View = "podcasts"
	ViewTV          View = "tv"
	ViewChannel     View = "channel"
	ViewViewChannel View = "view_channel"
	ViewMyVideos    View = "my_videos"
)

var views = map[View]struct{}{
	ViewHome: {}, ViewExplore: {}, ViewShorts: {}, ViewVideos: {}, ViewLive: {},
	ViewCourses: {}, ViewPodcasts: {}, ViewTV: {}, ViewChannel: {}, ViewViewChannel: {},
	ViewMyVideos: {},
}

// ErrUnknownView is returned for identifiers that are not navigable.
var ErrUnknownView = errors.New("unknown view")

// ParseView validates a navigation target. The splash view cannot be requested.
func ParseView(value string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := views[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, value)
	}
	return v, nil
}

// Protected reports whether the view requires an identity.
func (v View) Protected() bool {
	return v == ViewChannel || v == ViewMyVideos
}

// Effect is a side effect requested by a resolution and applied after commit.
type Effect string

const EffectOpenLogin Effect = "open_login"

// Decision is the outcome of resolving a requested view.
type Decision struct {
	View    View     `json:"view"`
	Effects []Effect `json:"effects,omitempty"`
}

// Resolve maps a requested view and the authentication state to the view to
// commit. A protected view requested without an identity resolves to home and
// asks for the login overlay instead.
func Resolve(requested View, authenticated bool) Decision {
	if requested.Protected() && !authenticated {
		return Decision{View: ViewHome, Effects: []Effect{EffectOpenLogin}}
	}
	return Decision{View: requested}
}

// Modal names a dismissible overlay that can own pending work.
type Modal string

const (
	ModalCreate    Modal = "create"
	ModalTVConnect Modal = "tv"
	ModalLogin     Modal = "login"
)

// ParseModal validates a modal name.
func ParseModal(value string) (Modal, error) {
	switch m := Modal(strings.ToLower(strings.TrimSpace(value))); m {
	case ModalCreate, ModalTVConnect, ModalLogin:
		return m, nil
	}
	return "", fmt.Errorf("unknown modal %q", value)
}

// Modals records which overlays are open.
type Modals struct {
	Create    bool `json:"create"`
	TVConnect bool `json:"tv"`
	Login     bool `json:"login"`
}

func (m *Modals) set(modal Modal, open bool) {
	switch modal {
	case ModalCreate:
		m.Create = open
	case ModalTVConnect:
		m.TVConnect = open
	case ModalLogin:
		m.Login = open
	}
}

// IsOpen reports whether modal is open.
func (m Modals) IsOpen(modal Modal) bool {
	switch modal {
	case ModalCreate:
		return m.Create
	case ModalTVConnect:
		return m.TVConnect
	case ModalLogin:
		return m.Login
	}
	return false
}
