package tests_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/internal/player"
	"github.com/leighmacdonald/fraglog/internal/servers"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestServerMapResolverIdempotent(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	repo := servers.NewRepository(fixture.Database)

	var first, second domain.Server

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errServer error
		first, errServer = repo.GetOrCreateServer(ctx, transaction, "idempotent-server")

		return errServer
	}))

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errServer error
		second, errServer = repo.GetOrCreateServer(ctx, transaction, "idempotent-server")

		return errServer
	}))

	require.Equal(t, first.ServerID, second.ServerID)
	require.Equal(t, 1, countRows(t, "server"))

	var firstMap, secondMap domain.Map

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errMap error
		firstMap, errMap = repo.GetOrCreateMap(ctx, transaction, "warehouse")

		return errMap
	}))

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errMap error
		secondMap, errMap = repo.GetOrCreateMap(ctx, transaction, "warehouse")

		return errMap
	}))

	require.Equal(t, firstMap.MapID, secondMap.MapID)
	require.Equal(t, 1, countRows(t, "map"))
}

func TestServerResolverConcurrent(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	repo := servers.NewRepository(fixture.Database)

	results := make([]domain.Server, 8)

	var group errgroup.Group

	for index := range results {
		group.Go(func() error {
			return fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
				var errServer error
				results[index], errServer = repo.GetOrCreateServer(ctx, transaction, "contended-server")

				return errServer
			})
		})
	}

	require.NoError(t, group.Wait())

	for _, result := range results {
		require.Equal(t, results[0].ServerID, result.ServerID)
	}

	require.Equal(t, 1, countRows(t, "server"))
}

func TestPlayerSentinels(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	repo := player.NewRepository(fixture.Database)

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		bot7, errBot7 := repo.GetOrCreatePlayer(ctx, transaction, "bot#7", "Rodney")
		if errBot7 != nil {
			return errBot7
		}

		bot42, errBot42 := repo.GetOrCreatePlayer(ctx, transaction, "bot#42", "Hal")
		if errBot42 != nil {
			return errBot42
		}

		anon, errAnon := repo.GetOrCreatePlayer(ctx, transaction, "player#3", "Nobody")
		if errAnon != nil {
			return errAnon
		}

		require.Equal(t, domain.BotPlayerID, bot7.PlayerID)
		require.Equal(t, domain.BotPlayerID, bot42.PlayerID)
		require.Equal(t, domain.AnonymousPlayerID, anon.PlayerID)
		require.True(t, bot7.Sentinel())
		require.True(t, anon.Sentinel())

		return nil
	}))

	require.Equal(t, 2, countRows(t, "player"))
	require.Equal(t, 0, countRows(t, "hashkey"))
}

func TestPlayerHashkeyReuse(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	repo := player.NewRepository(fixture.Database)

	var first, second domain.Player

	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errPlayer error
		first, errPlayer = repo.GetOrCreatePlayer(ctx, transaction, "deadbeefcafe", "Alice")

		return errPlayer
	}))

	require.False(t, first.Sentinel())
	require.Equal(t, "Alice", first.Nick)

	// A later sighting under a different nick reuses the stored row.
	require.NoError(t, fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
		var errPlayer error
		second, errPlayer = repo.GetOrCreatePlayer(ctx, transaction, "deadbeefcafe", "NotAlice")

		return errPlayer
	}))

	require.Equal(t, first.PlayerID, second.PlayerID)
	require.Equal(t, "Alice", second.Nick)
	require.Equal(t, 3, countRows(t, "player"))
	require.Equal(t, 1, countRows(t, "hashkey"))
}

func TestPlayerResolverConcurrent(t *testing.T) {
	ctx := context.Background()
	fixture.Reset(ctx)

	repo := player.NewRepository(fixture.Database)

	results := make([]domain.Player, 8)

	var group errgroup.Group

	for index := range results {
		group.Go(func() error {
			return fixture.Database.WrapTx(ctx, func(transaction pgx.Tx) error {
				var errPlayer error
				results[index], errPlayer = repo.GetOrCreatePlayer(ctx, transaction, "c0ffee", "Bob")

				return errPlayer
			})
		})
	}

	require.NoError(t, group.Wait())

	for _, result := range results {
		require.Equal(t, results[0].PlayerID, result.PlayerID)
	}

	// Exactly one tracked player row wins, the orphans roll back.
	require.Equal(t, 3, countRows(t, "player"))
	require.Equal(t, 1, countRows(t, "hashkey"))
}
