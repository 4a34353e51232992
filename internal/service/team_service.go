package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/AdamBeresnev/esports-bracket/internal/storage"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type TeamService struct {
	store    *store.TeamStore
	uploader storage.FileUploader
}

// NewTeamService builds a TeamService. uploader may be nil, which disables logo uploads.
func NewTeamService(store *store.TeamStore, uploader storage.FileUploader) *TeamService {
	return &TeamService{store: store, uploader: uploader}
}

type CreateTeamInput struct {
	Name string
	Tag  string
}

// CreateTeam registers a new team captained by the current user.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*bracket.Team, error) {
	team := &bracket.Team{
		Name: strings.TrimSpace(input.Name),
		Tag:  utils.StringOrNil(strings.ToUpper(strings.TrimSpace(input.Tag))),
	}
	if team.Name == "" {
		return nil, ErrNameRequired
	}
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		team.CaptainID = &userID
	}

	if err := s.store.CreateTeam(ctx, team); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTeamNameTaken
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id int64) (*bracket.Team, error) {
	team, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound)
	}
	return team, nil
}

func (s *TeamService) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	return s.store.ListTeams(ctx)
}

// UploadLogo stores a new logo for a team and points the team at it. Only the
// captain may change it.
func (s *TeamService) UploadLogo(ctx context.Context, teamID int64, contentType string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}

	ext, ok := logoExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported logo type %q", contentType)
	}

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return "", err
	}
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || team.CaptainID == nil || *team.CaptainID != userID {
		return "", ErrForbidden
	}

	key := path.Join("teams", fmt.Sprint(teamID), uuid.NewString()+ext)
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return "", err
	}

	if err := s.store.UpdateTeamLogo(ctx, teamID, result.Location); err != nil {
		// Don't leave an orphaned object behind
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to delete orphaned logo", "key", key, "error", delErr)
		}
		return "", fmt.Errorf("failed to save logo URL: %w", err)
	}

	slog.Info("team logo updated", "team_id", teamID, "key", key)
	return result.Location, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
