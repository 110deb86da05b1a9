package game

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/internal/domain"
)

type Repository struct {
	database database.Database
}

func NewRepository(database database.Database) *Repository {
	return &Repository{database: database}
}

func (r *Repository) insertGame(ctx context.Context, transaction pgx.Tx, game *domain.Game) error {
	query, args, errQuery := r.database.
		Builder().
		Insert("game").
		SetMap(map[string]interface{}{
			"start_dt":     game.StartTime,
			"game_type_cd": game.GameType,
			"server_id":    game.ServerID,
			"map_id":       game.MapID,
			"winner":       game.Winner,
		}).
		Suffix("RETURNING game_id").
		ToSql()
	if errQuery != nil {
		return database.DBErr(errQuery)
	}

	return database.DBErr(transaction.
		QueryRow(ctx, query, args...).
		Scan(&game.GameID))
}

func (r *Repository) insertPlayerGameStat(ctx context.Context, transaction pgx.Tx, pgstat *domain.PlayerGameStat) error {
	query, args, errQuery := r.database.
		Builder().
		Insert("player_game_stat").
		SetMap(map[string]interface{}{
			"player_id":     pgstat.PlayerID,
			"game_id":       pgstat.GameID,
			"nick":          pgstat.Nick,
			"team":          pgstat.Team,
			"rank":          pgstat.Rank,
			"alivetime":     pgstat.AliveTime,
			"score":         pgstat.Score,
			"kills":         pgstat.Kills,
			"deaths":        pgstat.Deaths,
			"suicides":      pgstat.Suicides,
			"captures":      pgstat.Captures,
			"pickups":       pgstat.Pickups,
			"drops":         pgstat.Drops,
			"returns":       pgstat.Returns,
			"carrier_frags": pgstat.CarrierFrags,
		}).
		Suffix("RETURNING player_game_stat_id, create_dt").
		ToSql()
	if errQuery != nil {
		return database.DBErr(errQuery)
	}

	return database.DBErr(transaction.
		QueryRow(ctx, query, args...).
		Scan(&pgstat.PlayerGameStatID, &pgstat.CreatedOn))
}

func (r *Repository) insertPlayerWeaponStat(ctx context.Context, transaction pgx.Tx, pwstat *domain.PlayerWeaponStat) error {
	query, args, errQuery := r.database.
		Builder().
		Insert("player_weapon_stat").
		SetMap(map[string]interface{}{
			"player_id":           pwstat.PlayerID,
			"game_id":             pwstat.GameID,
			"player_game_stat_id": pwstat.PlayerGameStatID,
			"weapon_cd":           pwstat.WeaponCode,
			"nick":                pwstat.Nick,
			"fired":               pwstat.Fired,
			`"max"`:               pwstat.Max,
			"hit":                 pwstat.Hit,
			"actual":              pwstat.Actual,
			"frags":               pwstat.Frags,
		}).
		Suffix("RETURNING player_weapon_stat_id").
		ToSql()
	if errQuery != nil {
		return database.DBErr(errQuery)
	}

	return database.DBErr(transaction.
		QueryRow(ctx, query, args...).
		Scan(&pwstat.PlayerWeaponStatID))
}
