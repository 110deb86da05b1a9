package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/fraglog/internal/config"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/internal/game"
	"github.com/leighmacdonald/fraglog/internal/httphelper"
	"github.com/leighmacdonald/fraglog/internal/player"
	"github.com/leighmacdonald/fraglog/internal/servers"
	"github.com/leighmacdonald/fraglog/pkg/log"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

type App struct {
	staticConfig config.Static
	database     database.Database
	servers      *servers.Repository
	players      *player.Repository
	games        *game.Games
	logCloser    func()
}

func NewApp() (*App, error) {
	staticConfig, errStatic := config.Read(cfgFile)
	if errStatic != nil {
		slog.Error("Failed to read static config", log.ErrAttr(errStatic))

		return nil, errStatic
	}

	return &App{staticConfig: staticConfig}, nil
}

func (a *App) Init(ctx context.Context) error {
	conf := a.staticConfig

	a.setupSentry()

	a.logCloser = log.MustCreateLogger(ctx, conf.Log.File, conf.Log.Level, conf.Sentry.DSN != "", BuildVersion)

	slog.Info("Starting fraglog...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	dbConn := database.New(conf.DB.DSN, conf.DB.AutoMigrate, conf.DB.LogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

		return errConnect
	}

	a.database = dbConn
	a.servers = servers.NewRepository(a.database)
	a.players = player.NewRepository(a.database)
	a.games = game.NewGames(a.database, a.servers, a.players)

	return nil
}

func (a *App) setupSentry() {
	if a.staticConfig.Sentry.DSN == "" {
		return
	}

	errSentry := sentry.Init(sentry.ClientOptions{
		Dsn:              a.staticConfig.Sentry.DSN,
		Release:          BuildVersion,
		EnableTracing:    true,
		TracesSampleRate: a.staticConfig.Sentry.SampleRate,
	})
	if errSentry != nil {
		slog.Error("Failed to setup sentry client", log.ErrAttr(errSentry))
	}
}

// Serve runs the HTTP service until interrupted.
func (a *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := a.staticConfig

	router := httphelper.CreateRouter(httphelper.RouterOpts{
		Mode:              conf.HTTP.Mode,
		HTTPLogEnabled:    conf.Log.HTTPEnabled,
		HTTPLogLevel:      conf.Log.HTTPLevel,
		SentryDSN:         conf.Sentry.DSN,
		Version:           BuildVersion,
		PProfEnabled:      conf.HTTP.PProfEnabled,
		PrometheusEnabled: conf.HTTP.PrometheusEnabled,
	})

	game.NewHandler(router, a.games, conf.HTTP.MaxBodySize)

	httpServer := httphelper.NewServer(conf.HTTP.Addr(), router)
	if conf.HTTP.RequestTimeout > 0 {
		httpServer.ReadTimeout = conf.HTTP.RequestTimeout
	}

	go func() {
		<-ctx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	slog.Info("Starting HTTP server", slog.String("address", conf.HTTP.Addr()))

	errServe := httpServer.ListenAndServe()
	if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		slog.Error("HTTP server returned error", log.ErrAttr(errServe))
	}

	<-ctx.Done()

	slog.Info("Exiting...")

	return nil
}

func (a *App) Close(_ context.Context) error {
	if a.database != nil {
		if errClose := a.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if a.staticConfig.Sentry.DSN != "" {
		sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}

	return nil
}
