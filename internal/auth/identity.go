package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/veotube/backend/internal/models"
)

// ErrEmailDomainNotAllowed rejects email logins outside the allow-list.
var ErrEmailDomainNotAllowed = errors.New("email domain not allowed: use a Hotmail, Outlook or Live address")

// ErrInvalidEmail is returned for addresses that do not parse.
var ErrInvalidEmail = errors.New("invalid email address")

// AllowedEmailDomains are the only domains accepted by the email login.
var AllowedEmailDomains = []string{"hotmail.com", "outlook.com", "live.com"}

const (
	defaultBanner = "https://images.unsplash.com/photo-1550684848-fac1c5b4e853?q=80&w=2070&auto=format&fit=crop"

	youTubeName   = "YouTube Creator"
	youTubeEmail  = "creator@youtube.com"
	youTubeAvatar = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?q=80&w=1000&auto=format&fit=crop"
	youTubeBanner = "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=2564&auto=format&fit=crop"
)

// AvatarURL returns the generated avatar for a display name.
func AvatarURL(name string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name)
}

// NewEmailIdentity builds the identity for an email login. The address must
// parse and its domain must be one of AllowedEmailDomains. An empty name
// defaults to the address's local part.
func NewEmailIdentity(name, email string, now time.Time) (models.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return models.User{}, ErrInvalidEmail
	}
	if !domainAllowed(domain) {
		return models.User{}, fmt.Errorf("%w (got %s)", ErrEmailDomainNotAllowed, domain)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = local
	}

	return models.User{
		ID:          strconv.FormatInt(now.UnixMilli(), 10),
		Name:        name,
		Email:       addr.Address,
		Avatar:      AvatarURL(name),
		Banner:      defaultBanner,
		Subscribers: "0",
	}, nil
}

func domainAllowed(domain string) bool {
	for _, allowed := range AllowedEmailDomains {
		if strings.EqualFold(domain, allowed) {
			return true
		}
	}
	return false
}

// NewYouTubeIdentity fabricates the one-click creator identity. It performs
// no validation; the email login's domain rule does not apply here.
func NewYouTubeIdentity(now time.Time) models.User {
	return models.User{
		ID:          "yt_" + strconv.FormatInt(now.UnixMilli(), 10),
		Name:        youTubeName,
		Email:       youTubeEmail,
		Avatar:      youTubeAvatar,
		Banner:      youTubeBanner,
		Subscribers: "1.2K",
	}
}
