package domain

import "time"

// Game is one finished match on a server/map pair. StartTime is truncated to
// whole seconds; Winner carries the optional winning team code.
type Game struct {
	GameID    int64     `json:"game_id"`
	StartTime time.Time `json:"start_time"`
	GameType  string    `json:"game_type_cd"`
	ServerID  int       `json:"server_id"`
	MapID     int       `json:"map_id"`
	Winner    *string   `json:"winner"`
}

// PlayerGameStat is the per-player scoreboard of one game. Pointer fields
// stay nil when the submission never set them; which fields receive zero
// defaults depends on the game type.
type PlayerGameStat struct {
	PlayerGameStatID int64          `json:"player_game_stat_id"`
	PlayerID         int            `json:"player_id"`
	GameID           int64          `json:"game_id"`
	CreatedOn        time.Time      `json:"created_on"`
	Nick             string         `json:"nick"`
	Team             *int           `json:"team"`
	Rank             *int           `json:"rank"`
	AliveTime        *time.Duration `json:"alivetime"`
	Score            int            `json:"score"`
	Kills            *int           `json:"kills"`
	Deaths           *int           `json:"deaths"`
	Suicides         *int           `json:"suicides"`
	Captures         *int           `json:"captures"`
	Pickups          *int           `json:"pickups"`
	Drops            *int           `json:"drops"`
	Returns          *int           `json:"returns"`
	CarrierFrags     *int           `json:"carrier_frags"`
}

// PlayerWeaponStat is the per-weapon accuracy record of one player in one
// game. Fired is present by construction; the remaining counters stay nil
// when their keys were absent.
type PlayerWeaponStat struct {
	PlayerWeaponStatID int64  `json:"player_weapon_stat_id"`
	PlayerID           int    `json:"player_id"`
	GameID             int64  `json:"game_id"`
	PlayerGameStatID   int64  `json:"player_game_stat_id"`
	WeaponCode         string `json:"weapon_cd"`
	Nick               string `json:"nick"`
	Fired              int    `json:"fired"`
	Max                *int   `json:"max"`
	Hit                *int   `json:"hit"`
	Actual             *int   `json:"actual"`
	Frags              *int   `json:"frags"`
}

// SubmissionSummary is the acknowledgment returned for a committed
// submission.
type SubmissionSummary struct {
	GameID      int64 `json:"game_id"`
	PlayerStats int   `json:"player_stats"`
	WeaponStats int   `json:"weapon_stats"`
}
