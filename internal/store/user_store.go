package store

import (
	"context"
	"fmt"

	users "github.com/AdamBeresnev/esports-bracket/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByProviderQuery = "SELECT * FROM users WHERE provider = ? AND provider_id = ?"

	// Matching on the provider identity keeps the original id and created_at,
	// only the profile fields follow the provider.
	upsertProviderUserQuery = `
		INSERT INTO users (id, email, username, provider, provider_id, avatar_url)
		VALUES (:id, :email, :username, :provider, :provider_id, :avatar_url)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			username = excluded.username,
			avatar_url = excluded.avatar_url
	`
	insertUserIfMissingQuery = `
		INSERT INTO users (id, email, username, provider, provider_id, avatar_url)
		VALUES (:id, :email, :username, :provider, :provider_id, :avatar_url)
		ON CONFLICT (id) DO NOTHING
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserQuery, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertProviderUser stores an OAuth account, refreshing the username and
// avatar of an existing one, and returns the stored row.
func (s *UserStore) UpsertProviderUser(ctx context.Context, user *users.User) (*users.User, error) {
	if user.Provider == nil || user.ProviderID == nil {
		return nil, fmt.Errorf("user %s has no provider identity", user.ID)
	}

	if _, err := s.db.NamedExecContext(ctx, upsertProviderUserQuery, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var stored users.User
	if err := s.db.GetContext(ctx, &stored, getUserByProviderQuery, *user.Provider, *user.ProviderID); err != nil {
		return nil, err
	}
	return &stored, nil
}

// EnsureUser inserts user unless a row with its id exists, then returns the
// stored row.
func (s *UserStore) EnsureUser(ctx context.Context, user *users.User) (*users.User, error) {
	if _, err := s.db.NamedExecContext(ctx, insertUserIfMissingQuery, user); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUser(ctx, user.ID)
}
