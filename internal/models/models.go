package models

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the aspect ratio a video was produced for.
type Format string

const (
	FormatLandscape Format = "16:9"
	FormatShort     Format = "9:16"
)

// ParseFormat accepts either the aspect ratio or its name ("landscape", "short").
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "landscape", string(FormatLandscape):
		return FormatLandscape, nil
	case "short", string(FormatShort):
		return FormatShort, nil
	default:
		return "", fmt.Errorf("unknown video format %q", value)
	}
}

// Name returns the short name used by query parameters.
func (f Format) Name() string {
	switch f {
	case FormatShort:
		return "short"
	case FormatLandscape:
		return "landscape"
	default:
		return string(f)
	}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatLandscape || f == FormatShort
}

// GenerationStatus tracks the lifecycle of a produced video.
type GenerationStatus string

const (
	StatusIdle       GenerationStatus = "idle"
	StatusGenerating GenerationStatus = "generating"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Valid reports whether s is a known status.
func (s GenerationStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusGenerating, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// AffiliateLink is a call-to-action attached to a video.
type AffiliateLink struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Video is a single catalog entry.
type Video struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	ThumbnailURL  string           `json:"thumbnailUrl,omitempty"`
	Prompt        string           `json:"prompt"`
	Description   string           `json:"description,omitempty"`
	AffiliateLink *AffiliateLink   `json:"affiliateLink,omitempty"`
	Format        Format           `json:"format"`
	Status        GenerationStatus `json:"status"`
	CreatedAt     int64            `json:"createdAt"`
	Likes         int64            `json:"likes"`
	Views         string           `json:"views"`
	Author        string           `json:"author"`
	AuthorID      string           `json:"authorId,omitempty"`
	AuthorAvatar  string           `json:"authorAvatar,omitempty"`
}

// ErrInvalidRecord is returned by Validate for records that do not match the persisted schema.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks the fields a persisted video must carry.
func (v Video) Validate() error {
	switch {
	case strings.TrimSpace(v.ID) == "":
		return fmt.Errorf("%w: video id is empty", ErrInvalidRecord)
	case strings.TrimSpace(v.URL) == "":
		return fmt.Errorf("%w: video %s has no url", ErrInvalidRecord, v.ID)
	case strings.TrimSpace(v.Author) == "":
		return fmt.Errorf("%w: video %s has no author", ErrInvalidRecord, v.ID)
	case !v.Format.Valid():
		return fmt.Errorf("%w: video %s has format %q", ErrInvalidRecord, v.ID, v.Format)
	case !v.Status.Valid():
		return fmt.Errorf("%w: video %s has status %q", ErrInvalidRecord, v.ID, v.Status)
	case v.Likes < 0:
		return fmt.Errorf("%w: video %s has negative likes", ErrInvalidRecord, v.ID)
	}
	return nil
}

// User is the signed-in identity.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	Banner      string `json:"banner"`
	Subscribers string `json:"subscribers"`
}

// Validate checks the fields a persisted identity must carry.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: identity requires id and name", ErrInvalidRecord)
	}
	return nil
}

// PairedDevice is a TV that completed the pairing flow.
type PairedDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LastConnected int64  `json:"lastConnected"`
	Code          string `json:"code"`
}

// Validate checks the fields a persisted device must carry.
func (d PairedDevice) Validate() error {
	if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: device requires id and name", ErrInvalidRecord)
	}
	return nil
}

// Course is an entry of the courses portal.
type Course struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
	Duration   string `json:"duration"`
	Modules    int    `json:"modules"`
	Thumbnail  string `json:"thumbnail"`
	// Progress is the completed share in percent.
	Progress int `json:"progress"`
}

// Episode is a podcast episode.
type Episode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Show        string `json:"show"`
	Duration    string `json:"duration"`
	Date        string `json:"date"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
}

// Keys used for the persisted snapshots.
const (
	KeyVideos        = "veotube_videos"
	KeyCurrentUser   = "veotube_current_user"
	KeyPairedDevices = "veotube_paired_tvs"
)
