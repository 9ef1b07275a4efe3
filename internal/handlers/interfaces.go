package handlers

import (
	"context"

	"github.com/veotube/backend/internal/auth"
	"github.com/veotube/backend/internal/creation"
	"github.com/veotube/backend/internal/devices"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/tasks"
)

// CatalogStore is the read side of the video catalog.
type CatalogStore interface {
	All() []models.Video
	Get(id string) (models.Video, error)
	ByAuthorID(id string) []models.Video
	ByFormat(format models.Format) []models.Video
	ByChannel(user models.User) []models.Video
}

// IdentityManager holds the signed-in user.
type IdentityManager interface {
	Current() (models.User, bool)
	Login(ctx context.Context, user models.User) error
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (models.User, error)
}

// Navigator drives the view state machine.
type Navigator interface {
	Frame() navigation.Frame
	Ready(ctx context.Context) navigation.Frame
	Navigate(ctx context.Context, view navigation.View) (navigation.Frame, error)
	SelectVideo(ctx context.Context, id string) navigation.Frame
	CloseVideo(ctx context.Context) navigation.Frame
	SelectAuthor(ctx context.Context, name string) (navigation.Frame, error)
	LoggedIn(ctx context.Context) navigation.Frame
	LoggedOut(ctx context.Context) navigation.Frame
	OpenModal(ctx context.Context, modal navigation.Modal) navigation.Frame
	CloseModal(ctx context.Context, modal navigation.Modal) navigation.Frame
	Scope(modal navigation.Modal) *tasks.Scope
	Hub() *navigation.Hub
}

// Creator publishes uploads and generated videos.
type Creator interface {
	Publish(ctx context.Context, sub creation.Submission) (models.Video, error)
	Upload(ctx context.Context, media creation.File, thumbnail *creation.File, sub creation.Submission) (models.Video, *tasks.Task, error)
	Generate(ctx context.Context, req creation.GenerateRequest) (*tasks.Task, error)
	Status() creation.Status
}

// DeviceRegistry manages paired TVs.
type DeviceRegistry interface {
	List() []models.PairedDevice
	Pair(ctx context.Context) (devices.Pairing, *tasks.Task)
	Status() devices.Pairing
	Remove(ctx context.Context, id string) error
}
