package types

import "time"

// User is the slice of the account record the notification pipeline needs.
// Account lifecycle, credentials, and roles are owned by the auth service and
// are not modeled here.
type User struct {
	ID         string    `json:"id" db:"id"`
	Username   string    `json:"username" db:"username"`
	Email      string    `json:"email" db:"email"`
	Subscribed bool      `json:"is_subscribed" db:"is_subscribed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
