package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MatchNotifier is told about every match that changed state.
type MatchNotifier interface {
	MatchUpdated(tournamentID uuid.UUID, match *bracket.Match)
}

type MatchService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	notifier MatchNotifier
}

// NewMatchService builds a MatchService. notifier may be nil.
func NewMatchService(db *sqlx.DB, store *store.TournamentStore, notifier MatchNotifier) *MatchService {
	return &MatchService{db: db, store: store, notifier: notifier}
}

type MatchData struct {
	Tournament *bracket.Tournament
	Match      bracket.EnrichedMatch
	RoundName  string
	CanManage  bool
}

func (s *MatchService) GetMatchViewData(ctx context.Context, matchID int64) (*MatchData, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}

	tournamentID := match.TournamentID.String()
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	matches, err := s.store.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.store.GetBracketTeams(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	// Enrich through the whole bracket so the match gets its round name and position
	data := &MatchData{Tournament: tournament, CanManage: requireOwner(ctx, tournament) == nil}
	for _, round := range bracket.BuildRounds(matches, teams) {
		for _, m := range round.Matches {
			if m.ID == match.ID {
				data.Match = m
				data.RoundName = round.Name
				return data, nil
			}
		}
	}

	// Unplaceable match: still show it, just without a round
	data.Match = bracket.EnrichMatch(*match, teams)
	return data, nil
}

// StartMatch puts a scheduled match with both teams known in progress.
func (s *MatchService) StartMatch(ctx context.Context, matchID int64) (*bracket.Match, error) {
	return s.transition(ctx, matchID, func(match *bracket.Match) error {
		if match.Team1ID == nil || match.Team2ID == nil {
			return ErrMatchNotReady
		}
		if !bracket.CanTransition(match.Status, bracket.MatchInProgress) {
			return ErrInvalidTransition
		}
		match.Status = bracket.MatchInProgress
		if match.Team1Score == nil {
			match.Team1Score = new(int)
		}
		if match.Team2Score == nil {
			match.Team2Score = new(int)
		}
		return nil
	})
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID int64) (*bracket.Match, error) {
	return s.transition(ctx, matchID, func(match *bracket.Match) error {
		if !bracket.CanTransition(match.Status, bracket.MatchCancelled) {
			return ErrInvalidTransition
		}
		match.Status = bracket.MatchCancelled
		return nil
	})
}

// SetStreamURL attaches a broadcast link to a match, or clears it when link is blank.
func (s *MatchService) SetStreamURL(ctx context.Context, matchID int64, link string) (*bracket.Match, error) {
	return s.transition(ctx, matchID, func(match *bracket.Match) error {
		match.StreamURL = utils.StringOrNil(link)
		return nil
	})
}

// ReportResult completes a running match and moves the winner into the slot it
// feeds in the next round. Reporting the final completes the tournament.
func (s *MatchService) ReportResult(ctx context.Context, matchID int64, team1Score, team2Score int, winnerID int64) (*bracket.Match, error) {
	if team1Score < 0 || team2Score < 0 {
		return nil, ErrInvalidScore
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, tournament, err := s.loadForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if !match.HasTeam(winnerID) {
		return nil, ErrWinnerNotInMatch
	}
	if !bracket.CanTransition(match.Status, bracket.MatchCompleted) {
		return nil, ErrInvalidTransition
	}

	match.Team1Score = &team1Score
	match.Team2Score = &team2Score
	match.WinnerID = &winnerID
	match.Status = bracket.MatchCompleted

	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	changed := []*bracket.Match{match}

	next, err := s.advanceWinner(ctx, tx, match)
	if err != nil {
		return nil, err
	}
	if next != nil {
		changed = append(changed, next)
	}

	final, err := s.isFinal(ctx, tx, match)
	if err != nil {
		return nil, err
	}
	if final {
		if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournament.ID.String(), bracket.TournamentCompleted); err != nil {
			return nil, fmt.Errorf("failed to update tournament status: %w", err)
		}
		slog.Info("tournament completed", "tournament_id", tournament.ID, "winner_id", winnerID)
	} else if next == nil {
		slog.Warn("winner has no next match to advance into", "match_id", match.ID, "tournament_id", tournament.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, m := range changed {
		s.publish(m)
	}
	return match, nil
}

// isFinal reports whether match sits in the last round of its bracket.
func (s *MatchService) isFinal(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) (bool, error) {
	if match.Round == nil {
		return false, nil
	}
	last, err := s.store.LastRoundTx(ctx, tx, match.TournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to get last round: %w", err)
	}
	return *match.Round == last, nil
}

func (s *MatchService) advanceWinner(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) (*bracket.Match, error) {
	if match.Round == nil || match.MatchNumber == nil {
		return nil, nil
	}

	nr, nn, slot := bracket.NextPosition(*match.Round, *match.MatchNumber)
	next, err := s.store.GetMatchByPositionTx(ctx, tx, match.TournamentID, nr, nn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next match: %w", err)
	}

	switch slot {
	case 1:
		next.Team1ID = match.WinnerID
	case 2:
		next.Team2ID = match.WinnerID
	}

	if err := s.store.UpdateMatch(ctx, tx, next); err != nil {
		return nil, fmt.Errorf("failed to update next match: %w", err)
	}
	return next, nil
}

func (s *MatchService) transition(ctx context.Context, matchID int64, apply func(*bracket.Match) error) (*bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, _, err := s.loadForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if err := apply(match); err != nil {
		return nil, err
	}

	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(match)
	return match, nil
}

// loadForUpdate fetches a match and its tournament and checks the caller owns it.
func (s *MatchService) loadForUpdate(ctx context.Context, tx *sqlx.Tx, matchID int64) (*bracket.Match, *bracket.Tournament, error) {
	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, nil, notFound(err, ErrMatchNotFound)
	}

	tournament, err := s.store.GetTournamentTx(ctx, tx, match.TournamentID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := requireOwner(ctx, tournament); err != nil {
		return nil, nil, err
	}
	return match, tournament, nil
}

func (s *MatchService) publish(match *bracket.Match) {
	if s.notifier == nil {
		return
	}
	s.notifier.MatchUpdated(match.TournamentID, match)
}
