package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/AdamBeresnev/esports-bracket/internal/storage"
	users "github.com/AdamBeresnev/esports-bracket/internal/user"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects map[string]string
	deleted []string
	failPut bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ string, r io.Reader) (*storage.UploadResult, error) {
	if f.failPut {
		return nil, errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.objects[key] = string(data)
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func TestCreateTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	team, err := env.teamService.CreateTeam(ctx, CreateTeamInput{Name: " Natus Vincere ", Tag: "navi"})
	require.NoError(t, err)
	assert.NotZero(t, team.ID)
	assert.Equal(t, "Natus Vincere", team.Name)
	require.NotNil(t, team.Tag)
	assert.Equal(t, "NAVI", *team.Tag)
	require.NotNil(t, team.CaptainID)
	assert.Equal(t, users.GuestID, *team.CaptainID)

	_, err = env.teamService.CreateTeam(ctx, CreateTeamInput{Name: "Natus Vincere"})
	assert.ErrorIs(t, err, ErrTeamNameTaken)

	_, err = env.teamService.CreateTeam(ctx, CreateTeamInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	fetched, err := env.teamService.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.Name, fetched.Name)

	_, err = env.teamService.GetTeam(ctx, 12345)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestUploadLogo(t *testing.T) {
	env := newTestEnv(t)
	uploader := newFakeUploader()
	teams := NewTeamService(env.teams, uploader)
	ctx := ownerCtx()

	team, err := teams.CreateTeam(ctx, CreateTeamInput{Name: "Vitality"})
	require.NoError(t, err)

	location, err := teams.UploadLogo(ctx, team.ID, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, "https://cdn.test/teams/"))
	assert.True(t, strings.HasSuffix(location, ".png"))
	assert.Len(t, uploader.objects, 1)

	fetched, err := teams.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LogoURL)
	assert.Equal(t, location, *fetched.LogoURL)

	t.Run("unsupported type", func(t *testing.T) {
		_, err := teams.UploadLogo(ctx, team.ID, "application/pdf", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("only the captain", func(t *testing.T) {
		stranger := middleware.WithUserID(context.Background(), uuid.New())
		_, err := teams.UploadLogo(stranger, team.ID, "image/png", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("upload failure leaves logo alone", func(t *testing.T) {
		uploader.failPut = true
		defer func() { uploader.failPut = false }()

		_, err := teams.UploadLogo(ctx, team.ID, "image/webp", strings.NewReader("x"))
		assert.Error(t, err)

		fetched, err := teams.GetTeam(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, location, *fetched.LogoURL)
	})
}

func TestUploadLogo_Disabled(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.teamService.UploadLogo(ownerCtx(), 1, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestFindOrCreateUserByProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gothUser := goth.User{
		Provider:  "discord",
		UserID:    "1234",
		Email:     "player@example.com",
		NickName:  "player_one",
		AvatarURL: "https://cdn.discord/a.png",
	}

	created, err := env.userService.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, "player_one", created.Username)
	assert.False(t, created.IsGuest())

	gothUser.NickName = "player_renamed"
	gothUser.AvatarURL = ""
	again, err := env.userService.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "player_renamed", again.Username)
	assert.Nil(t, again.AvatarURL)

	guest, err := env.userService.EnsureGuestUser(ctx)
	require.NoError(t, err)
	assert.True(t, guest.IsGuest())
}
