// Package statparse implements the line-oriented end-of-match telemetry
// protocol pushed by game servers. A submission body is a newline separated
// list of `key value` pairs describing one finished match: a handful of
// single-letter metadata codes followed by one block per player, each block
// opened by a `P` identity line.
//
// Parsing is purely in-memory, performs no I/O and never fails a whole
// submission; malformed lines are dropped.
package statparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMissingMeta indicates a required metadata code was absent from the
// submission.
var ErrMissingMeta = errors.New("required game metadata missing")

// MetaKey is one of the single-letter metadata codes sent ahead of the
// player blocks.
type MetaKey string

const (
	MetaVersion   MetaKey = "V"
	MetaStartTime MetaKey = "T"
	MetaGameType  MetaKey = "G"
	MetaMap       MetaKey = "M"
	MetaServer    MetaKey = "S"
	MetaCrypto    MetaKey = "C"
	MetaRevision  MetaKey = "R"
	MetaWinner    MetaKey = "W"
)

// Event keys recognised within a player block. Anything else that arrives
// on an `e` line is retained verbatim so that open-ended families such as
// the per-weapon accuracy counters stay available to consumers.
const (
	EventIdentity        = "P"
	EventNick            = "n"
	EventTeam            = "t"
	EventJoins           = "joins"
	EventMatches         = "matches"
	EventScoreboardValid = "scoreboardvalid"
	EventRank            = "rank"
	EventAliveTime       = "alivetime"

	EventScoreboardDrops    = "scoreboard-drops"
	EventScoreboardReturns  = "scoreboard-returns"
	EventScoreboardFCKills  = "scoreboard-fckills"
	EventScoreboardPickups  = "scoreboard-pickups"
	EventScoreboardCaps     = "scoreboard-caps"
	EventScoreboardScore    = "scoreboard-score"
	EventScoreboardDeaths   = "scoreboard-deaths"
	EventScoreboardKills    = "scoreboard-kills"
	EventScoreboardSuicides = "scoreboard-suicides"
)

var (
	rxBot       = regexp.MustCompile(`^bot#\d+$`)
	rxAnonymous = regexp.MustCompile(`^player#\d+$`)
)

// GameMeta holds the metadata codes of one submission. Later occurrences of
// a code overwrite earlier ones.
type GameMeta struct {
	values map[MetaKey]string
}

func newGameMeta() GameMeta {
	return GameMeta{values: map[MetaKey]string{}}
}

func (m GameMeta) set(key MetaKey, value string) {
	m.values[key] = value
}

func (m GameMeta) Get(key MetaKey) (string, bool) {
	value, found := m.values[key]

	return value, found
}

func (m GameMeta) GameType() string {
	return m.values[MetaGameType]
}

func (m GameMeta) MapName() string {
	return m.values[MetaMap]
}

func (m GameMeta) ServerName() string {
	return m.values[MetaServer]
}

// Winner returns the winning team code when the optional `W` line was sent.
func (m GameMeta) Winner() (string, bool) {
	winner, found := m.values[MetaWinner]

	return winner, found
}

// StartTime converts the epoch-seconds `T` value into UTC wall time. Any
// sub-second precision supplied by the server is discarded.
func (m GameMeta) StartTime() (time.Time, error) {
	raw, found := m.values[MetaStartTime]
	if !found {
		return time.Time{}, ErrMissingMeta
	}

	epoch, errParse := strconv.ParseFloat(raw, 64)
	if errParse != nil {
		return time.Time{}, errParse //nolint:wrapcheck
	}

	return time.Unix(int64(epoch), 0).UTC(), nil
}

// Valid is true when every metadata code required for persistence is present.
func (m GameMeta) Valid() bool {
	for _, key := range []MetaKey{MetaStartTime, MetaGameType, MetaMap, MetaServer} {
		if _, found := m.values[key]; !found {
			return false
		}
	}

	return true
}

// PlayerEvents is the ordered-insertion event set of a single player block.
// Key order matches first appearance in the submission text; overwriting an
// existing key keeps its original position.
type PlayerEvents struct {
	keys   []string
	values map[string]string
}

func newPlayerEvents() *PlayerEvents {
	return &PlayerEvents{values: map[string]string{}}
}

func (e *PlayerEvents) set(key string, value string) {
	if _, found := e.values[key]; !found {
		e.keys = append(e.keys, key)
	}

	e.values[key] = value
}

func (e *PlayerEvents) Get(key string) (string, bool) {
	value, found := e.values[key]

	return value, found
}

func (e *PlayerEvents) Has(key string) bool {
	_, found := e.values[key]

	return found
}

// Keys returns the event keys in insertion order.
func (e *PlayerEvents) Keys() []string {
	return e.keys
}

func (e *PlayerEvents) Len() int {
	return len(e.keys)
}

// Identity returns the raw `P` identity token: `bot#<n>`, `player#<n>` or a
// stable client hash string.
func (e *PlayerEvents) Identity() string {
	return e.values[EventIdentity]
}

func (e *PlayerEvents) Nick() (string, bool) {
	nick, found := e.values[EventNick]

	return nick, found
}

func (e *PlayerEvents) IsBot() bool {
	return rxBot.MatchString(e.Identity())
}

func (e *PlayerEvents) IsAnonymous() bool {
	return rxAnonymous.MatchString(e.Identity())
}

// Qualified is true for players that were present for the whole match: the
// server flagged them as having joined, matched and produced a valid
// scoreboard. Only qualified players earn stat rows.
func (e *PlayerEvents) Qualified() bool {
	return e.Has(EventJoins) && e.Has(EventMatches) && e.Has(EventScoreboardValid)
}

// Parse splits a raw submission body into game metadata and one event set
// per player, in first-appearance order.
//
// A line without a key/value split is dropped, as is an `e` line without a
// subkey/subvalue split. Player-level lines arriving before the first `P`
// line have no player to attach to and are dropped as well.
func Parse(body string) (GameMeta, []*PlayerEvents) {
	var (
		meta    = newGameMeta()
		players []*PlayerEvents
		current = newPlayerEvents()
	)

	for line := range strings.Lines(body) {
		key, value, found := strings.Cut(strings.TrimSpace(line), " ")
		if !found {
			continue
		}

		switch key {
		case string(MetaVersion), string(MetaStartTime), string(MetaGameType), string(MetaMap),
			string(MetaServer), string(MetaCrypto), string(MetaRevision), string(MetaWinner):
			meta.set(MetaKey(key), value)
		case EventIdentity:
			if current.Len() > 0 {
				players = append(players, current)
				current = newPlayerEvents()
			}

			current.set(EventIdentity, value)
		case "e":
			subKey, subValue, foundSub := strings.Cut(value, " ")
			if !foundSub || !current.Has(EventIdentity) {
				continue
			}

			current.set(subKey, subValue)
		case EventNick, EventTeam:
			if !current.Has(EventIdentity) {
				continue
			}

			current.set(key, value)
		default:
			// Unknown player-level keys are not retained.
		}
	}

	if current.Len() > 0 {
		players = append(players, current)
	}

	return meta, players
}
