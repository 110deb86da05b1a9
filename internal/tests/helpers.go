// Package tests holds the shared postgres container fixture used by the
// integration tests.
package tests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var ErrContainer = errors.New("failed to bring up test container")

type postgresContainer struct {
	testcontainers.Container
	dbName   string
	user     string
	password string
	dsn      string
}

func newDB(ctx context.Context) (*postgresContainer, error) {
	const testInfo = "fraglog-test"
	username, password, dbName := testInfo, testInfo, testInfo

	cont, errContainer := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			HostConfigModifier: func(config *container.HostConfig) {
				config.AutoRemove = false
			},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     username,
				"POSTGRES_PASSWORD": password,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if errContainer != nil {
		return nil, errors.Join(errContainer, ErrContainer)
	}

	port, errPort := cont.MappedPort(ctx, "5432")
	if errPort != nil {
		return nil, errors.Join(errPort, ErrContainer)
	}

	dsn := fmt.Sprintf("postgresql://%s:%s@localhost:%s/%s", username, password, port.Port(), dbName)

	pgContainer := postgresContainer{
		Container: cont,
		dbName:    dbName,
		user:      username,
		password:  password,
		dsn:       dsn,
	}

	return &pgContainer, nil
}

type Fixture struct {
	container *postgresContainer
	Database  database.Database
	DSN       string
	Close     func()
}

func NewFixture() (*Fixture, error) {
	testCtx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	defer cancel()

	testDB, errStore := newDB(testCtx)
	if errStore != nil {
		return nil, errStore
	}

	databaseConn := database.New(testDB.dsn, true, false)
	if errConnect := databaseConn.Connect(testCtx); errConnect != nil {
		return nil, errConnect
	}

	return &Fixture{
		container: testDB,
		Database:  databaseConn,
		DSN:       testDB.dsn,
		Close: func() {
			termCtx, termCancel := context.WithTimeout(context.Background(), time.Second*30)
			defer termCancel()

			if errClose := databaseConn.Close(); errClose != nil {
				panic(errClose)
			}

			if errTerm := testDB.Terminate(termCtx); errTerm != nil {
				panic(fmt.Sprintf("Failed to terminate test container: %v", errTerm))
			}
		},
	}, nil
}

// Reset truncates all data tables and restores the seeded sentinel player
// rows, leaving the migration bookkeeping alone.
func (f Fixture) Reset(ctx context.Context) {
	const query = `DO
$do$
BEGIN
   EXECUTE
   (SELECT 'TRUNCATE TABLE ' || string_agg(oid::regclass::text, ', ') || ' CASCADE'
    FROM   pg_class
    WHERE  relkind = 'r'
    AND    relnamespace = 'public'::regnamespace
    AND    relname != '_migration'
   );
END
$do$;`

	if err := f.Database.Exec(ctx, query); err != nil {
		panic(err)
	}

	if err := f.Database.Exec(ctx,
		`insert into player (player_id, nick) values (1, 'Bot'), (2, 'Anonymous Player')`); err != nil {
		panic(err)
	}

	if err := f.Database.Exec(ctx, `select setval('player_player_id_seq', 100)`); err != nil {
		panic(err)
	}
}
