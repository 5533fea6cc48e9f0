package db

import (
	"context"

	"contesthub/internal/types"
)

// UserRepository provides the read-only user access the notification
// dispatcher needs. User lifecycle (signup, credentials, roles) is owned by
// the auth service and not exposed here.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository backed by the given database
// connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// ListSubscribed returns every user who has opted in to contest
// notifications.
func (r *UserRepository) ListSubscribed(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, username, email, is_subscribed, created_at
		 FROM users
		 WHERE is_subscribed = TRUE
		 ORDER BY id`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list subscribed users", err)
	}
	defer rows.Close()

	var out []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Subscribed, &u.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan user row", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating user rows", err)
	}
	return out, nil
}
