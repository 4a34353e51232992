package service

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/store"
	users "github.com/AdamBeresnev/esports-bracket/internal/user"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

type UserService struct {
	store *store.UserStore
}

func NewUserService(store *store.UserStore) *UserService {
	return &UserService{store: store}
}

// FindOrCreateUserByProvider returns the account linked to an OAuth identity,
// creating it on first login and refreshing the name and avatar afterwards.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	return s.store.UpsertProviderUser(ctx, &users.User{
		ID:         uuid.New(),
		Email:      gothUser.Email,
		Username:   displayName(gothUser),
		Provider:   utils.Ptr(gothUser.Provider),
		ProviderID: utils.Ptr(gothUser.UserID),
		AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
	})
}

// EnsureGuestUser returns the shared guest account, creating it the first time.
func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	return s.store.EnsureUser(ctx, &users.User{
		ID:       users.GuestID,
		Email:    "guest@esports-bracket.local",
		Username: "Guest Organiser",
	})
}

func displayName(u goth.User) string {
	for _, name := range []string{u.NickName, u.Name, u.Email} {
		if name != "" {
			return name
		}
	}
	return "Player"
}
