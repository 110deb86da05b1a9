package game

import (
	"context"
	"testing"

	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/pkg/statparse"
	"github.com/stretchr/testify/require"
)

func TestSubmitRejectsMissingMeta(t *testing.T) {
	games := &Games{}

	// No map name.
	_, errSubmit := games.Submit(context.Background(), "T 1700000000\nG dm\nS Example Server\n")
	require.ErrorIs(t, errSubmit, domain.ErrInvalidSubmission)
}

func TestSubmitRejectsBadStartTime(t *testing.T) {
	games := &Games{}

	_, errSubmit := games.Submit(context.Background(), "T soon\nG dm\nM warehouse\nS Example Server\nP deadbeef\ne joins 1\ne matches 1\ne scoreboardvalid 1\n")
	require.ErrorIs(t, errSubmit, domain.ErrInvalidSubmission)
}

func TestSubmitRejectsBotOnlyMatch(t *testing.T) {
	games := &Games{}

	body := "T 1700000000\nG dm\nM warehouse\nS Example Server\n" +
		"P bot#1\ne joins 1\ne matches 1\ne scoreboardvalid 1\n" +
		"P bot#2\ne joins 1\ne matches 1\ne scoreboardvalid 1\n"

	_, errSubmit := games.Submit(context.Background(), body)
	require.ErrorIs(t, errSubmit, domain.ErrEmptySubmission)
}

func TestSubmitRejectsSpectatorOnlyMatch(t *testing.T) {
	games := &Games{}

	// A human present but never completing a valid scoreboard does not
	// qualify the match.
	body := "T 1700000000\nG dm\nM warehouse\nS Example Server\n" +
		"P deadbeef\ne joins 1\n" +
		"P bot#1\ne joins 1\ne matches 1\ne scoreboardvalid 1\n"

	_, errSubmit := games.Submit(context.Background(), body)
	require.ErrorIs(t, errSubmit, domain.ErrEmptySubmission)
}

func TestNickOfWithoutNickStaysEmpty(t *testing.T) {
	_, players := statparse.Parse("P deadbeefcafe\ne joins 1\n")
	require.Len(t, players, 1)

	// A player block without an `n` line creates the player nickless; the
	// identity token is a hashkey, never a display name.
	require.Empty(t, nickOf(players[0]))
}

func TestNickOfReturnsSuppliedNick(t *testing.T) {
	_, players := statparse.Parse("P deadbeefcafe\nn Grunt\ne joins 1\n")
	require.Len(t, players, 1)
	require.Equal(t, "Grunt", nickOf(players[0]))
}

func TestHasRealPlayersIgnoresBotPrefixedIdentities(t *testing.T) {
	body := "T 1700000000\nG dm\nM warehouse\nS Example Server\n" +
		"P botlike-but-malformed\ne joins 1\ne matches 1\ne scoreboardvalid 1\n"

	games := &Games{}

	// Identities starting with "bot" never count as humans, even when they
	// do not match the full sentinel pattern.
	_, errSubmit := games.Submit(context.Background(), body)
	require.ErrorIs(t, errSubmit, domain.ErrEmptySubmission)
}
