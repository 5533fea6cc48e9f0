// Package notify sends the daily digest of contests starting tomorrow to
// subscribed users. "Tomorrow" is computed in a configured timezone: the
// window runs from the next local midnight to the midnight after, converted
// to UTC for the store query.
package notify

import (
	"context"
	"log/slog"
	"time"

	"contesthub/internal/external"
	"contesthub/internal/types"
)

// ContestStore is the subset of the contest repository the dispatcher needs.
type ContestStore interface {
	ListStartingBetween(ctx context.Context, start, end time.Time) ([]types.Contest, error)
}

// UserStore lists the recipients of the digest.
type UserStore interface {
	ListSubscribed(ctx context.Context) ([]types.User, error)
}

// DispatcherConfig carries the dependencies for NewDispatcher.
type DispatcherConfig struct {
	Contests ContestStore
	Users    UserStore
	Email    external.EmailProvider
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time // optional, defaults to time.Now
}

// Dispatcher assembles and sends the daily contest digest.
type Dispatcher struct {
	contests ContestStore
	users    UserStore
	email    external.EmailProvider
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher from cfg. A nil Location means UTC.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		contests: cfg.Contests,
		users:    cfg.Users,
		email:    cfg.Email,
		loc:      loc,
		logger:   logger,
		now:      now,
	}
}

// RunResult summarizes one dispatch pass.
type RunResult struct {
	Contests int
	Sent     int
	Failed   int
}

// Run sends the digest for tomorrow's window. With no contests in the window
// it is a no-op: no emails go out. A failing send skips only that recipient.
func (d *Dispatcher) Run(ctx context.Context) (RunResult, error) {
	start, end := TomorrowWindow(d.now(), d.loc)

	contests, err := d.contests.ListStartingBetween(ctx, start, end)
	if err != nil {
		return RunResult{}, err
	}
	if len(contests) == 0 {
		d.logger.InfoContext(ctx, "no contests in notification window, skipping dispatch",
			"window_start", start,
			"window_end", end,
		)
		return RunResult{}, nil
	}

	users, err := d.users.ListSubscribed(ctx)
	if err != nil {
		return RunResult{Contests: len(contests)}, err
	}

	result := RunResult{Contests: len(contests)}
	for _, user := range users {
		subject, html, err := RenderDigest(user.Username, contests, start, d.loc)
		if err != nil {
			d.logger.ErrorContext(ctx, "rendering digest failed",
				"user_id", user.ID,
				"error", err,
			)
			result.Failed++
			continue
		}

		msgID, err := d.email.Send(ctx, external.Mail{
			To:          user.Email,
			ToName:      user.Username,
			Subject:     subject,
			HTMLContent: html,
		})
		if err != nil {
			d.logger.ErrorContext(ctx, "sending digest failed",
				"user_id", user.ID,
				"error", err,
			)
			result.Failed++
			continue
		}
		d.logger.DebugContext(ctx, "digest sent",
			"user_id", user.ID,
			"message_id", msgID,
		)
		result.Sent++
	}

	d.logger.InfoContext(ctx, "notification dispatch finished",
		"contests", result.Contests,
		"sent", result.Sent,
		"failed", result.Failed,
	)
	return result, nil
}

// TomorrowWindow returns the UTC instants bounding tomorrow's local day:
// [next local midnight, the midnight after). Both bounds are returned in UTC
// for the store query.
func TomorrowWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return midnight.UTC(), midnight.AddDate(0, 0, 1).UTC()
}
