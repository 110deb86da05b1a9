package game

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/pkg/statparse"
)

// Game type codes with their own scoreboard defaults. All other game types
// only carry a score.
const (
	gameTypeDM  = "dm"
	gameTypeCTF = "ctf"
)

var rxWeaponFired = regexp.MustCompile(`^acc-(.+)-cnt-fired$`)

// NewPlayerGameStat shapes one player's raw event set into a scoreboard row
// for the given game. Fields not covered by the game type defaults and never
// sent by the server stay unset.
func NewPlayerGameStat(game domain.Game, player domain.Player, events *statparse.PlayerEvents) (domain.PlayerGameStat, error) {
	pgstat := domain.PlayerGameStat{
		PlayerID: player.PlayerID,
		GameID:   game.GameID,
		Score:    0,
	}

	switch game.GameType {
	case gameTypeDM:
		pgstat.Kills = intPtr(0)
		pgstat.Deaths = intPtr(0)
		pgstat.Suicides = intPtr(0)
	case gameTypeCTF:
		pgstat.Kills = intPtr(0)
		pgstat.Captures = intPtr(0)
		pgstat.Pickups = intPtr(0)
		pgstat.Drops = intPtr(0)
		pgstat.Returns = intPtr(0)
		pgstat.CarrierFrags = intPtr(0)
	}

	for _, key := range events.Keys() {
		value, _ := events.Get(key)

		var errField error

		switch key {
		case statparse.EventNick:
			pgstat.Nick = value
		case statparse.EventTeam:
			pgstat.Team, errField = parseIntPtr(key, value)
		case statparse.EventRank:
			pgstat.Rank, errField = parseIntPtr(key, value)
		case statparse.EventAliveTime:
			pgstat.AliveTime, errField = parseSecondsPtr(key, value)
		case statparse.EventScoreboardDrops:
			pgstat.Drops, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardReturns:
			pgstat.Returns, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardFCKills:
			pgstat.CarrierFrags, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardPickups:
			pgstat.Pickups, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardCaps:
			pgstat.Captures, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardScore:
			var score *int
			if score, errField = parseIntPtr(key, value); errField == nil {
				pgstat.Score = *score
			}
		case statparse.EventScoreboardDeaths:
			pgstat.Deaths, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardKills:
			pgstat.Kills, errField = parseIntPtr(key, value)
		case statparse.EventScoreboardSuicides:
			pgstat.Suicides, errField = parseIntPtr(key, value)
		}

		if errField != nil {
			return domain.PlayerGameStat{}, errField
		}
	}

	if pgstat.Nick == "" {
		pgstat.Nick = player.Nick
	}

	return pgstat, nil
}

// NewPlayerWeaponStats emits one accuracy row per weapon the player fired,
// keyed off the presence of an `acc-<weapon>-cnt-fired` counter. Counters
// missing their sibling keys stay unset.
func NewPlayerWeaponStats(game domain.Game, pgstat domain.PlayerGameStat, events *statparse.PlayerEvents) ([]domain.PlayerWeaponStat, error) {
	nick, hasNick := events.Nick()
	if !hasNick {
		if nick = events.Identity(); nick == "" {
			return nil, domain.ErrMissingPlayerNick
		}
	}

	var pwstats []domain.PlayerWeaponStat

	for _, key := range events.Keys() {
		matched := rxWeaponFired.FindStringSubmatch(key)
		if matched == nil {
			continue
		}

		weaponCode := matched[1]

		pwstat := domain.PlayerWeaponStat{
			PlayerID:         pgstat.PlayerID,
			GameID:           game.GameID,
			PlayerGameStatID: pgstat.PlayerGameStatID,
			WeaponCode:       weaponCode,
			Nick:             nick,
		}

		fired, _ := events.Get(key)

		firedCount, errFired := parseRounded(key, fired)
		if errFired != nil {
			return nil, errFired
		}

		pwstat.Fired = firedCount

		counters := []struct {
			suffix string
			target **int
		}{
			{"fired", &pwstat.Max},
			{"cnt-hit", &pwstat.Hit},
			{"hit", &pwstat.Actual},
			{"frags", &pwstat.Frags},
		}

		for _, counter := range counters {
			counterKey := "acc-" + weaponCode + "-" + counter.suffix

			raw, found := events.Get(counterKey)
			if !found {
				continue
			}

			count, errCount := parseRounded(counterKey, raw)
			if errCount != nil {
				return nil, errCount
			}

			*counter.target = &count
		}

		pwstats = append(pwstats, pwstat)
	}

	return pwstats, nil
}

func intPtr(value int) *int {
	return &value
}

func parseIntPtr(key string, value string) (*int, error) {
	parsed, errParse := strconv.Atoi(strings.TrimSpace(value))
	if errParse != nil {
		return nil, errors.Join(fmt.Errorf("key %s: %w", key, errParse), domain.ErrMalformedStat)
	}

	return &parsed, nil
}

// parseRounded interprets a counter the way the submitting servers send
// them: a float rounded to the nearest whole number.
func parseRounded(key string, value string) (int, error) {
	parsed, errParse := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if errParse != nil {
		return 0, errors.Join(fmt.Errorf("key %s: %w", key, errParse), domain.ErrMalformedStat)
	}

	return int(math.Round(parsed)), nil
}

func parseSecondsPtr(key string, value string) (*time.Duration, error) {
	seconds, errParse := parseRounded(key, value)
	if errParse != nil {
		return nil, errParse
	}

	duration := time.Duration(seconds) * time.Second

	return &duration, nil
}
