// Package servers resolves the Server and Map reference rows sighted in
// submissions, creating them on first sighting.
package servers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/internal/domain"
)

// maxResolveAttempts bounds the find/insert retry loop when concurrent
// submissions race to create the same logical row.
const maxResolveAttempts = 3

type Repository struct {
	database database.Database
}

func NewRepository(database database.Database) *Repository {
	return &Repository{database: database}
}

// GetOrCreateServer returns the server known under name, inserting it when
// it has never been sighted. Concurrent creation attempts for the same name
// converge onto a single row: the insert does nothing on conflict and the
// loser re-reads the winning row.
func (r *Repository) GetOrCreateServer(ctx context.Context, transaction pgx.Tx, name string) (domain.Server, error) {
	for range maxResolveAttempts {
		server, errFind := r.serverByName(ctx, transaction, name)
		if errFind == nil {
			return server, nil
		}

		if !errors.Is(errFind, domain.ErrNoResult) {
			return domain.Server{}, errFind
		}

		created, errCreate := r.insertServer(ctx, transaction, name)
		if errCreate == nil {
			return created, nil
		}

		if !errors.Is(errCreate, domain.ErrDuplicate) {
			return domain.Server{}, errCreate
		}
	}

	return domain.Server{}, domain.ErrResolveConflict
}

// GetOrCreateMap applies the same policy as GetOrCreateServer, scoped to
// maps.
func (r *Repository) GetOrCreateMap(ctx context.Context, transaction pgx.Tx, name string) (domain.Map, error) {
	for range maxResolveAttempts {
		gameMap, errFind := r.mapByName(ctx, transaction, name)
		if errFind == nil {
			return gameMap, nil
		}

		if !errors.Is(errFind, domain.ErrNoResult) {
			return domain.Map{}, errFind
		}

		created, errCreate := r.insertMap(ctx, transaction, name)
		if errCreate == nil {
			return created, nil
		}

		if !errors.Is(errCreate, domain.ErrDuplicate) {
			return domain.Map{}, errCreate
		}
	}

	return domain.Map{}, domain.ErrResolveConflict
}

// serverByName returns the lowest-id server matching name exactly. More than
// one match is a recoverable data anomaly, logged and resolved
// deterministically rather than surfaced.
func (r *Repository) serverByName(ctx context.Context, transaction pgx.Tx, name string) (domain.Server, error) {
	const query = `SELECT server_id, name FROM server WHERE name = $1 ORDER BY server_id`

	rows, errQuery := transaction.Query(ctx, query, name)
	if errQuery != nil {
		return domain.Server{}, database.DBErr(errQuery)
	}

	defer rows.Close()

	var matches []domain.Server

	for rows.Next() {
		var server domain.Server
		if errScan := rows.Scan(&server.ServerID, &server.Name); errScan != nil {
			return domain.Server{}, database.DBErr(errScan)
		}

		matches = append(matches, server)
	}

	if errRows := rows.Err(); errRows != nil {
		return domain.Server{}, database.DBErr(errRows)
	}

	if len(matches) == 0 {
		return domain.Server{}, domain.ErrNoResult
	}

	if len(matches) > 1 {
		slog.Warn("Multiple servers share a name, using lowest id",
			slog.String("name", name), slog.Int("matches", len(matches)))
	}

	return matches[0], nil
}

func (r *Repository) insertServer(ctx context.Context, transaction pgx.Tx, name string) (domain.Server, error) {
	const query = `INSERT INTO server (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING server_id`

	server := domain.Server{Name: name}

	if errScan := transaction.QueryRow(ctx, query, name).Scan(&server.ServerID); errScan != nil {
		if errors.Is(errScan, pgx.ErrNoRows) {
			// Another submission created the row first.
			return domain.Server{}, domain.ErrDuplicate
		}

		return domain.Server{}, database.DBErr(errScan)
	}

	slog.Debug("Created server", slog.Int("server_id", server.ServerID), slog.String("name", name))

	return server, nil
}

func (r *Repository) mapByName(ctx context.Context, transaction pgx.Tx, name string) (domain.Map, error) {
	const query = `SELECT map_id, name FROM map WHERE name = $1 ORDER BY map_id`

	rows, errQuery := transaction.Query(ctx, query, name)
	if errQuery != nil {
		return domain.Map{}, database.DBErr(errQuery)
	}

	defer rows.Close()

	var matches []domain.Map

	for rows.Next() {
		var gameMap domain.Map
		if errScan := rows.Scan(&gameMap.MapID, &gameMap.Name); errScan != nil {
			return domain.Map{}, database.DBErr(errScan)
		}

		matches = append(matches, gameMap)
	}

	if errRows := rows.Err(); errRows != nil {
		return domain.Map{}, database.DBErr(errRows)
	}

	if len(matches) == 0 {
		return domain.Map{}, domain.ErrNoResult
	}

	if len(matches) > 1 {
		slog.Warn("Multiple maps share a name, using lowest id",
			slog.String("name", name), slog.Int("matches", len(matches)))
	}

	return matches[0], nil
}

func (r *Repository) insertMap(ctx context.Context, transaction pgx.Tx, name string) (domain.Map, error) {
	const query = `INSERT INTO map (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING map_id`

	gameMap := domain.Map{Name: name}

	if errScan := transaction.QueryRow(ctx, query, name).Scan(&gameMap.MapID); errScan != nil {
		if errors.Is(errScan, pgx.ErrNoRows) {
			return domain.Map{}, domain.ErrDuplicate
		}

		return domain.Map{}, database.DBErr(errScan)
	}

	slog.Debug("Created map", slog.Int("map_id", gameMap.MapID), slog.String("name", name))

	return gameMap, nil
}
