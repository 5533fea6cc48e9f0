package external

import (
	"context"

	"contesthub/internal/types"
)

// Mail is the input to a single notification email send.
type Mail struct {
	To      string
	ToName  string
	Subject string
	// HTMLContent is the rendered message body.
	HTMLContent string
}

// EmailProvider abstracts the mail delivery service. Sends are fire-and-forget
// from the dispatcher's perspective: the returned provider message ID is only
// logged.
type EmailProvider interface {
	Send(ctx context.Context, mail Mail) (string, error)
}

// PlaylistFetcher abstracts the video playlist provider used by the
// solution-link matcher. FetchAll pages through the playlist until the
// provider stops returning a continuation token.
type PlaylistFetcher interface {
	FetchAll(ctx context.Context, playlistID string) ([]types.PlaylistVideo, error)
}
