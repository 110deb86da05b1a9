// Package player resolves submission identity tokens onto player rows. Bots
// and untracked clients collapse onto fixed sentinel rows; everyone else is
// tracked through a hashkey linking their stable client identifier to a
// player row created on first sighting.
package player

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/internal/domain"
)

const maxResolveAttempts = 3

var (
	rxBot       = regexp.MustCompile(`^bot#\d+$`)
	rxAnonymous = regexp.MustCompile(`^player#\d+$`)
)

type Repository struct {
	database database.Database
}

func NewRepository(database database.Database) *Repository {
	return &Repository{database: database}
}

// GetOrCreatePlayer resolves an identity token onto a player row. Bot and
// anonymous tokens return the reserved sentinel rows without touching the
// hashkey table. Unknown hashkeys create a player (carrying nick when
// supplied) plus the hashkey link; a lost creation race falls back onto
// re-reading the winning row.
//
// Lookup failures other than "not found" propagate as real errors, they are
// never treated as a signal to create a fresh player.
func (r *Repository) GetOrCreatePlayer(ctx context.Context, transaction pgx.Tx, identity string, nick string) (domain.Player, error) {
	if rxBot.MatchString(identity) {
		return r.playerByID(ctx, transaction, domain.BotPlayerID)
	}

	if rxAnonymous.MatchString(identity) {
		return r.playerByID(ctx, transaction, domain.AnonymousPlayerID)
	}

	for range maxResolveAttempts {
		existing, errFind := r.playerByHashkey(ctx, transaction, identity)
		if errFind == nil {
			return existing, nil
		}

		if !errors.Is(errFind, domain.ErrNoResult) {
			return domain.Player{}, errFind
		}

		created, errCreate := r.createPlayer(ctx, transaction, identity, nick)
		if errCreate == nil {
			return created, nil
		}

		if !errors.Is(errCreate, domain.ErrDuplicate) {
			return domain.Player{}, errCreate
		}
	}

	return domain.Player{}, domain.ErrResolveConflict
}

func (r *Repository) playerByID(ctx context.Context, transaction pgx.Tx, playerID int) (domain.Player, error) {
	const query = `SELECT player_id, coalesce(nick, ''), create_dt FROM player WHERE player_id = $1`

	var player domain.Player
	if errScan := transaction.
		QueryRow(ctx, query, playerID).
		Scan(&player.PlayerID, &player.Nick, &player.CreatedOn); errScan != nil {
		return domain.Player{}, database.DBErr(errScan)
	}

	return player, nil
}

func (r *Repository) playerByHashkey(ctx context.Context, transaction pgx.Tx, hashkey string) (domain.Player, error) {
	const query = `
		SELECT p.player_id, coalesce(p.nick, ''), p.create_dt
		FROM hashkey h
		JOIN player p ON p.player_id = h.player_id
		WHERE h.hashkey = $1`

	var player domain.Player
	if errScan := transaction.
		QueryRow(ctx, query, hashkey).
		Scan(&player.PlayerID, &player.Nick, &player.CreatedOn); errScan != nil {
		return domain.Player{}, database.DBErr(errScan)
	}

	return player, nil
}

// createPlayer inserts the player/hashkey pair inside a savepoint so that a
// lost insert race rolls back the orphan player row while leaving the
// enclosing submission transaction intact.
func (r *Repository) createPlayer(ctx context.Context, transaction pgx.Tx, hashkey string, nick string) (domain.Player, error) {
	const (
		insertPlayer  = `INSERT INTO player (nick) VALUES (nullif($1, '')) RETURNING player_id, create_dt`
		insertHashkey = `INSERT INTO hashkey (hashkey, player_id) VALUES ($1, $2) ON CONFLICT (hashkey) DO NOTHING RETURNING player_id`
	)

	savepoint, errBegin := transaction.Begin(ctx)
	if errBegin != nil {
		return domain.Player{}, database.DBErr(errBegin)
	}

	player := domain.Player{Nick: nick}

	if errScan := savepoint.
		QueryRow(ctx, insertPlayer, nick).
		Scan(&player.PlayerID, &player.CreatedOn); errScan != nil {
		_ = savepoint.Rollback(ctx)

		return domain.Player{}, database.DBErr(errScan)
	}

	var linkedID int
	if errScan := savepoint.
		QueryRow(ctx, insertHashkey, hashkey, player.PlayerID).
		Scan(&linkedID); errScan != nil {
		_ = savepoint.Rollback(ctx)

		if errors.Is(errScan, pgx.ErrNoRows) {
			// Another submission linked this hashkey first.
			return domain.Player{}, domain.ErrDuplicate
		}

		return domain.Player{}, database.DBErr(errScan)
	}

	if errCommit := savepoint.Commit(ctx); errCommit != nil {
		return domain.Player{}, database.DBErr(errCommit)
	}

	slog.Debug("Created player", slog.Int("player_id", player.PlayerID))

	return player, nil
}
