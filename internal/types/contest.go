// Package types defines the shared domain model for the ContestHub platform:
// the normalized Contest record produced by the platform adapters, the status
// classification rules, and the error type used across all layers.
package types

import "time"

// Platform identifies the external competitive-programming site a contest
// belongs to. Immutable once a contest is created; together with the contest
// name it forms the natural key for idempotent upserts.
type Platform string

const (
	PlatformCodeforces Platform = "Codeforces"
	PlatformCodeChef   Platform = "CodeChef"
	PlatformLeetCode   Platform = "LeetCode"
)

// AllPlatforms lists every supported platform in stable order.
var AllPlatforms = []Platform{PlatformCodeforces, PlatformCodeChef, PlatformLeetCode}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformCodeforces, PlatformCodeChef, PlatformLeetCode:
		return true
	}
	return false
}

// ContestStatus is the derived temporal state of a contest. It is stored
// denormalized alongside the authoritative timestamps and recomputed by the
// hourly sweep, so it must never be treated as a source of truth.
type ContestStatus string

const (
	StatusUpcoming ContestStatus = "upcoming"
	StatusOngoing  ContestStatus = "ongoing"
	StatusPast     ContestStatus = "past"
)

// Classify computes a contest's status from its timestamps and a reference
// time. The boundaries are half-open: a contest is ongoing from the instant
// it starts up to (but excluding) the instant it ends.
func Classify(now, start, end time.Time) ContestStatus {
	switch {
	case !now.Before(end):
		return StatusPast
	case !start.After(now):
		return StatusOngoing
	default:
		return StatusUpcoming
	}
}

// Contest is the normalized representation of one competitive-programming
// event, regardless of which provider it came from.
type Contest struct {
	ID       string   `json:"id" db:"id"`
	Platform Platform `json:"platform" db:"platform"`
	Name     string   `json:"name" db:"name"`
	URL      string   `json:"url" db:"url"`

	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	// DurationMinutes normally equals round((EndTime-StartTime)/1m); it may
	// diverge slightly when a provider reports its own duration field.
	DurationMinutes int `json:"duration_minutes" db:"duration_minutes"`

	Status ContestStatus `json:"status" db:"status"`

	// SolutionVideoID holds the solution video URL once the matcher (or an
	// admin) links one; empty until then.
	SolutionVideoID string `json:"solution_video_id,omitempty" db:"solution_video_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NaturalKey returns the (platform, name) identity used for upserts.
func (c *Contest) NaturalKey() string {
	return string(c.Platform) + "/" + c.Name
}

// PlaylistVideo is one entry of a provider playlist, collected while paging.
// It is ephemeral and never persisted.
type PlaylistVideo struct {
	Title   string `json:"title"`
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

// SolutionLinkUpdate associates a persisted contest with a solution video URL.
type SolutionLinkUpdate struct {
	ContestID string
	VideoURL  string
}

// ContestStatusFilter selects contests for a bulk status update. Nil bounds
// are unconstrained. NotStatus excludes rows already carrying the target
// status so the sweep only touches drifted rows.
type ContestStatusFilter struct {
	StartAtOrBefore *time.Time
	StartAfter      *time.Time
	EndAfter        *time.Time
	EndAtOrBefore   *time.Time
	NotStatus       ContestStatus
}

// Pagination describes the page window of a contest listing response.
type Pagination struct {
	CurrentPage   int  `json:"current_page"`
	TotalPages    int  `json:"total_pages"`
	TotalContests int  `json:"total_contests"`
	Limit         int  `json:"limit"`
	HasNextPage   bool `json:"has_next_page"`
	HasPrevPage   bool `json:"has_prev_page"`
}

// ContestPage is one page of a contest listing plus its pagination metadata.
// It is the payload cached under the contests:* keys.
type ContestPage struct {
	Contests   []Contest  `json:"contests"`
	Pagination Pagination `json:"pagination"`
}
