// Package filter computes the visible subset of the catalog for the search
// and browse views.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/veotube/backend/internal/models"
)

// All is the sentinel meaning "no constraint" for the author, format and date dimensions.
const All = "all"

// DateBucket limits results to recently created videos.
type DateBucket string

const (
	DateAll   DateBucket = All
	DateToday DateBucket = "today"
	DateWeek  DateBucket = "week"
	DateMonth DateBucket = "month"
)

const day = 24 * time.Hour

// Window returns how far back the bucket reaches. ok is false for DateAll.
func (b DateBucket) Window() (time.Duration, bool) {
	switch b {
	case DateToday:
		return day, true
	case DateWeek:
		return 7 * day, true
	case DateMonth:
		return 30 * day, true
	default:
		return 0, false
	}
}

// ErrInvalidCriteria is returned by ParseCriteria for unknown enum values.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria holds the conjunctive predicates. The zero value matches everything.
type Criteria struct {
	Query  string     `json:"q"`
	Author string     `json:"author"`
	Format string     `json:"format"`
	Date   DateBucket `json:"date"`
}

// Reset returns criteria that match every video.
func Reset() Criteria {
	return Criteria{Author: All, Format: All, Date: DateAll}
}

// ParseCriteria reads q, author, format and date from query parameters.
// Missing parameters mean "all".
func ParseCriteria(values url.Values) (Criteria, error) {
	c := Reset()
	c.Query = values.Get("q")

	if author := values.Get("author"); author != "" {
		c.Author = author
	}

	if format := strings.TrimSpace(values.Get("format")); format != "" && !strings.EqualFold(format, All) {
		parsed, err := models.ParseFormat(format)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
		}
		c.Format = parsed.Name()
	}

	if date := strings.ToLower(strings.TrimSpace(values.Get("date"))); date != "" {
		switch bucket := DateBucket(date); bucket {
		case DateAll, DateToday, DateWeek, DateMonth:
			c.Date = bucket
		default:
			return Criteria{}, fmt.Errorf("%w: unknown date bucket %q", ErrInvalidCriteria, date)
		}
	}
	return c, nil
}

// IsEmpty reports whether c places no constraint on the result.
func (c Criteria) IsEmpty() bool {
	return c.Query == "" && isAll(c.Author) && isAll(c.Format) && isAll(string(c.Date))
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Matches reports whether v satisfies every active predicate at instant now.
func (c Criteria) Matches(v models.Video, now time.Time) bool {
	if c.Query != "" {
		q := strings.ToLower(c.Query)
		if !strings.Contains(strings.ToLower(v.Prompt), q) && !strings.Contains(strings.ToLower(v.Author), q) {
			return false
		}
	}
	if !isAll(c.Author) && v.Author != c.Author {
		return false
	}
	if !isAll(c.Format) && v.Format.Name() != c.Format {
		return false
	}
	if window, ok := c.Date.Window(); ok {
		if v.CreatedAt <= now.Add(-window).UnixMilli() {
			return false
		}
	}
	return true
}

// Result is the outcome of one evaluation. An empty result is not an error.
type Result struct {
	Videos   []models.Video `json:"videos"`
	Total    int            `json:"total"`
	Empty    bool           `json:"empty"`
	Criteria Criteria       `json:"criteria"`
}

// Apply returns the subsequence of videos matching c, in input order. now is
// the evaluation instant, so date buckets move with the wall clock.
func Apply(videos []models.Video, c Criteria, now time.Time) Result {
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if c.Matches(v, now) {
			out = append(out, v)
		}
	}
	return Result{Videos: out, Total: len(out), Empty: len(out) == 0, Criteria: c}
}

// Authors lists the distinct author names in videos, sorted. Callers add the All sentinel.
func Authors(videos []models.Video) []string {
	seen := make(map[string]struct{}, len(videos))
	authors := make([]string, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.Author]; ok {
			continue
		}
		seen[v.Author] = struct{}{}
		authors = append(authors, v.Author)
	}
	sort.Strings(authors)
	return authors
}
