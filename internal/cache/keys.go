package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"contesthub/internal/types"
)

// ListingTTL is the time-to-live applied to every contest-listing cache
// entry.
const ListingTTL = 3600 * time.Second

// Key prefixes for the contest-listing cache namespace. Invalidation after a
// write deletes whole prefixes rather than individual page keys;
// over-invalidation only costs a recomputation.
const (
	PrefixUpcoming = "contests:upcoming"
	PrefixPast     = "contests:past"
	PrefixFilter   = "contests:filter:"
	PrefixBookmark = "bookmark:"
)

// KeyUpcoming returns the cache key for one page of the upcoming listing.
func KeyUpcoming(page, limit int) string {
	return fmt.Sprintf("%s:page:%d:limit:%d", PrefixUpcoming, page, limit)
}

// KeyPast returns the cache key for one page of the past listing.
func KeyPast(page, limit int) string {
	return fmt.Sprintf("%s:page:%d:limit:%d", PrefixPast, page, limit)
}

// KeyFilter returns the cache key for a platform-filtered listing. The
// platform list is sorted before joining so that equivalent filters hit the
// same entry regardless of query order.
func KeyFilter(platforms []types.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	sort.Strings(names)
	return PrefixFilter + strings.Join(names, ",")
}

// KeyBookmark returns the cache key for one user's bookmark list.
func KeyBookmark(userID string) string {
	return PrefixBookmark + userID
}
