package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/internal/player"
	"github.com/leighmacdonald/fraglog/internal/servers"
	"github.com/leighmacdonald/fraglog/pkg/statparse"
)

// Games ingests end-of-match submissions. Each accepted submission becomes
// one game row plus the per-player scoreboard and weapon accuracy rows,
// committed atomically.
type Games struct {
	repository *Repository
	database   database.Database
	servers    *servers.Repository
	players    *player.Repository
}

func NewGames(database database.Database, serversRepo *servers.Repository, playersRepo *player.Repository) *Games {
	return &Games{
		repository: NewRepository(database),
		database:   database,
		servers:    serversRepo,
		players:    playersRepo,
	}
}

// Submit parses a raw submission body and persists it. Submissions missing
// required metadata fail with domain.ErrInvalidSubmission; bot-only matches
// are dropped with domain.ErrEmptySubmission. Nothing is written unless the
// whole submission commits.
func (g *Games) Submit(ctx context.Context, body string) (domain.SubmissionSummary, error) {
	meta, playerEvents := statparse.Parse(body)

	if !meta.Valid() {
		return domain.SubmissionSummary{}, domain.ErrInvalidSubmission
	}

	if !hasRealPlayers(playerEvents) {
		return domain.SubmissionSummary{}, domain.ErrEmptySubmission
	}

	startTime, errStart := meta.StartTime()
	if errStart != nil {
		return domain.SubmissionSummary{}, errors.Join(errStart, domain.ErrInvalidSubmission)
	}

	var summary domain.SubmissionSummary

	errTx := g.database.WrapTx(ctx, func(transaction pgx.Tx) error {
		server, errServer := g.servers.GetOrCreateServer(ctx, transaction, meta.ServerName())
		if errServer != nil {
			return errServer
		}

		gameMap, errMap := g.servers.GetOrCreateMap(ctx, transaction, meta.MapName())
		if errMap != nil {
			return errMap
		}

		game := domain.Game{
			StartTime: startTime,
			GameType:  meta.GameType(),
			ServerID:  server.ServerID,
			MapID:     gameMap.MapID,
		}

		if winner, hasWinner := meta.Winner(); hasWinner {
			game.Winner = &winner
		}

		if errGame := g.repository.insertGame(ctx, transaction, &game); errGame != nil {
			return errGame
		}

		summary.GameID = game.GameID

		for _, events := range playerEvents {
			resolved, errPlayer := g.players.GetOrCreatePlayer(ctx, transaction, events.Identity(), nickOf(events))
			if errPlayer != nil {
				return errPlayer
			}

			if !events.Qualified() {
				continue
			}

			pgstat, errStat := NewPlayerGameStat(game, resolved, events)
			if errStat != nil {
				return errStat
			}

			if errInsert := g.repository.insertPlayerGameStat(ctx, transaction, &pgstat); errInsert != nil {
				return errInsert
			}

			summary.PlayerStats++

			if events.IsBot() {
				continue
			}

			pwstats, errWeapons := NewPlayerWeaponStats(game, pgstat, events)
			if errWeapons != nil {
				return errWeapons
			}

			for index := range pwstats {
				if errInsert := g.repository.insertPlayerWeaponStat(ctx, transaction, &pwstats[index]); errInsert != nil {
					return errInsert
				}

				summary.WeaponStats++
			}
		}

		return nil
	})

	if errTx != nil {
		return domain.SubmissionSummary{}, errTx
	}

	slog.Debug("Accepted game submission",
		slog.Int64("game_id", summary.GameID),
		slog.String("game_type", meta.GameType()),
		slog.String("map", meta.MapName()),
		slog.Int("player_stats", summary.PlayerStats),
		slog.Int("weapon_stats", summary.WeaponStats))

	return summary, nil
}

// ImportFile runs one pre-captured submission body through the normal
// pipeline, used by the import command to backfill from disk.
func (g *Games) ImportFile(ctx context.Context, name string, body string) (domain.SubmissionSummary, error) {
	summary, errSubmit := g.Submit(ctx, body)
	if errSubmit != nil {
		return domain.SubmissionSummary{}, errSubmit
	}

	slog.Info("Imported submission", slog.String("file", name), slog.Int64("game_id", summary.GameID))

	return summary, nil
}

// hasRealPlayers reports whether at least one human played a complete,
// scoreboard-valid match. Bots are recognized by their identity prefix here
// rather than the full sentinel pattern so that malformed bot identities
// still never count as humans.
func hasRealPlayers(playerEvents []*statparse.PlayerEvents) bool {
	for _, events := range playerEvents {
		if strings.HasPrefix(events.Identity(), "bot") {
			continue
		}

		if events.Qualified() {
			return true
		}
	}

	return false
}

// nickOf returns the supplied nick, or empty when the block never sent one.
// Player creation must not fall back onto the identity token; a tracked
// player sighted without a nick keeps a null nick.
func nickOf(events *statparse.PlayerEvents) string {
	nick, _ := events.Nick()

	return nick
}
