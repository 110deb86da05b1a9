package tests_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/internal/game"
	"github.com/leighmacdonald/fraglog/internal/httphelper"
	"github.com/leighmacdonald/fraglog/internal/player"
	"github.com/leighmacdonald/fraglog/internal/servers"
	"github.com/stretchr/testify/require"
)

const sampleSubmission = `T 1700000000
G dm
M aggressor
S test-server
P player#1
n Bob
e joins 1
e matches 1
e scoreboardvalid 1
e scoreboard-kills 10
e scoreboard-deaths 2
e acc-rifle-cnt-fired 50
e acc-rifle-cnt-hit 30
`

func newGames() *game.Games {
	return game.NewGames(fixture.Database,
		servers.NewRepository(fixture.Database),
		player.NewRepository(fixture.Database))
}

func newRouter() *gin.Engine {
	router := httphelper.CreateRouter(httphelper.RouterOpts{Mode: gin.TestMode})
	game.NewHandler(router, newGames(), 1<<20)

	return router
}

func postSubmission(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/stats/submit", strings.NewReader(body))
	router.ServeHTTP(recorder, request)

	return recorder
}

func countRows(t *testing.T, table string) int {
	t.Helper()

	var count int
	require.NoError(t, fixture.Database.
		QueryRow(context.Background(), "select count(*) from "+table).
		Scan(&count))

	return count
}

func TestSubmissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	recorder := postSubmission(t, newRouter(), sampleSubmission)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "OK", recorder.Body.String())

	var (
		gameID     int64
		gameType   string
		startTime  time.Time
		winner     *string
		serverName string
		mapName    string
	)

	require.NoError(t, fixture.Database.QueryRow(ctx, `
		select g.game_id, g.game_type_cd, g.start_dt, g.winner, s.name, m.name
		from game g
		join server s using (server_id)
		join map m using (map_id)`).
		Scan(&gameID, &gameType, &startTime, &winner, &serverName, &mapName))

	require.Equal(t, "dm", gameType)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), startTime.UTC())
	require.Nil(t, winner)
	require.Equal(t, "test-server", serverName)
	require.Equal(t, "aggressor", mapName)

	var (
		playerID int
		nick     string
		kills    *int
		deaths   *int
		suicides *int
		captures *int
	)

	require.NoError(t, fixture.Database.QueryRow(ctx,
		`select player_id, nick, kills, deaths, suicides, captures from player_game_stat where game_id = $1`, gameID).
		Scan(&playerID, &nick, &kills, &deaths, &suicides, &captures))

	// player#1 is the anonymous sentinel.
	require.Equal(t, domain.AnonymousPlayerID, playerID)
	require.Equal(t, "Bob", nick)
	require.NotNil(t, kills)
	require.Equal(t, 10, *kills)
	require.NotNil(t, deaths)
	require.Equal(t, 2, *deaths)
	require.NotNil(t, suicides)
	require.Equal(t, 0, *suicides)
	require.Nil(t, captures)

	var (
		weaponCode string
		fired      int
		maxShots   *int
		hit        *int
		actual     *int
	)

	require.NoError(t, fixture.Database.QueryRow(ctx,
		`select weapon_cd, fired, "max", hit, actual from player_weapon_stat where game_id = $1`, gameID).
		Scan(&weaponCode, &fired, &maxShots, &hit, &actual))

	require.Equal(t, "rifle", weaponCode)
	require.Equal(t, 50, fired)
	require.Nil(t, maxShots)
	require.NotNil(t, hit)
	require.Equal(t, 30, *hit)
	require.Nil(t, actual)

	// The anonymous sentinel never gets new player or hashkey rows.
	require.Equal(t, 2, countRows(t, "player"))
	require.Equal(t, 0, countRows(t, "hashkey"))
}

func TestSubmissionMissingMetaLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	recorder := postSubmission(t, newRouter(), "T 1700000000\nG dm\nS test-server\nP deadbeef\ne joins 1\ne matches 1\ne scoreboardvalid 1\n")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	require.Equal(t, 0, countRows(t, "game"))
	require.Equal(t, 0, countRows(t, "server"))
	require.Equal(t, 0, countRows(t, "map"))
	require.Equal(t, 2, countRows(t, "player"))
}

func TestSubmissionBotOnlyLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG dm\nM aggressor\nS test-server\n" +
		"P bot#1\ne joins 1\ne matches 1\ne scoreboardvalid 1\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	require.Equal(t, 0, countRows(t, "game"))
	require.Equal(t, 0, countRows(t, "server"))
}

func TestSubmissionMalformedStatRollsBack(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG dm\nM aggressor\nS test-server\n" +
		"P deadbeefcafe\nn Mallory\ne joins 1\ne matches 1\ne scoreboardvalid 1\ne scoreboard-kills lots\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// Whole submission rolls back, including the game and the freshly
	// created player row.
	require.Equal(t, 0, countRows(t, "game"))
	require.Equal(t, 0, countRows(t, "player_game_stat"))
	require.Equal(t, 2, countRows(t, "player"))
	require.Equal(t, 0, countRows(t, "hashkey"))
}

func TestSubmissionMixedBotAndHuman(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG dm\nM aggressor\nS test-server\n" +
		"P deadbeefcafe\nn Alice\ne joins 1\ne matches 1\ne scoreboardvalid 1\ne scoreboard-kills 4\ne acc-rifle-cnt-fired 10\n" +
		"P bot#3\nn Rodney\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusOK, recorder.Code)

	// Only the qualifying human gets stat rows; the bot never joined.
	require.Equal(t, 1, countRows(t, "player_game_stat"))
	require.Equal(t, 1, countRows(t, "player_weapon_stat"))

	// Alice is tracked and got a fresh player and hashkey row.
	require.Equal(t, 3, countRows(t, "player"))
	require.Equal(t, 1, countRows(t, "hashkey"))
}

func TestSubmissionQualifiedBotGetsGameStatOnly(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG dm\nM aggressor\nS test-server\n" +
		"P deadbeefcafe\nn Alice\ne joins 1\ne matches 1\ne scoreboardvalid 1\n" +
		"P bot#3\nn Rodney\ne joins 1\ne matches 1\ne scoreboardvalid 1\ne acc-rifle-cnt-fired 10\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusOK, recorder.Code)

	// The qualified bot gets a scoreboard row but never weapon rows.
	require.Equal(t, 2, countRows(t, "player_game_stat"))
	require.Equal(t, 0, countRows(t, "player_weapon_stat"))

	var botStats int
	require.NoError(t, fixture.Database.QueryRow(ctx,
		`select count(*) from player_game_stat where player_id = $1`, domain.BotPlayerID).
		Scan(&botStats))
	require.Equal(t, 1, botStats)
}

func TestSubmissionNicklessPlayerKeepsNullNick(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG dm\nM aggressor\nS test-server\n" +
		"P deadbeefcafe\ne joins 1\ne matches 1\ne scoreboardvalid 1\ne scoreboard-kills 3\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusOK, recorder.Code)

	// A tracked player sighted without an `n` line stays nickless; the
	// hashkey must never leak into the nick column.
	var nick *string
	require.NoError(t, fixture.Database.QueryRow(ctx,
		`select p.nick from player p join hashkey h using (player_id) where h.hashkey = $1`, "deadbeefcafe").
		Scan(&nick))
	require.Nil(t, nick)
}

func TestSubmissionWinner(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	body := "T 1700000000\nG ctf\nM warehouse\nS test-server\nW 5\n" +
		"P deadbeefcafe\nn Alice\nt 5\ne joins 1\ne matches 1\ne scoreboardvalid 1\ne scoreboard-caps 2\n"

	recorder := postSubmission(t, newRouter(), body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var winner *string
	require.NoError(t, fixture.Database.QueryRow(ctx, `select winner from game`).Scan(&winner))
	require.NotNil(t, winner)
	require.Equal(t, "5", *winner)

	var captures, returns *int
	require.NoError(t, fixture.Database.QueryRow(ctx, `select captures, returns from player_game_stat`).
		Scan(&captures, &returns))
	require.NotNil(t, captures)
	require.Equal(t, 2, *captures)
	require.NotNil(t, returns)
	require.Equal(t, 0, *returns)
}
