package service

import "context"

// Cache keys for derived aggregates kept by the external statistics
// service. Operations that change the underlying data hand the affected
// keys to an Invalidator; delivery is best effort and never fails the
// primary operation.
const (
	CacheKeyBookingStats  = "stats:bookings"
	CacheKeyEntranceStats = "stats:entrances"
	CacheKeyDashboard     = "stats:dashboard"
)

type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}
