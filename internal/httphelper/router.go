package httphelper

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/fraglog/pkg/log"
	sloggin "github.com/samber/slog-gin"
)

type RouterOpts struct {
	Mode              string
	HTTPLogEnabled    bool
	HTTPLogLevel      log.Level
	SentryDSN         string
	Version           string
	PProfEnabled      bool
	PrometheusEnabled bool
}

// CreateRouter constructs a new gin.Engine with the provided RouterOpts.
func CreateRouter(opts RouterOpts) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recoveryHandler())
	engine.Use(errorHandler())

	if opts.HTTPLogEnabled {
		useSloggin(engine, opts.HTTPLogLevel)
	}

	if opts.SentryDSN != "" {
		useSentry(engine, opts.Version)
	}

	if opts.PProfEnabled {
		pprof.Register(engine)
	}

	if opts.PrometheusEnabled {
		usePrometheus(engine)
	}

	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "OK")
	})

	return engine
}

func NewServer(listenAddr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           listenAddr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func useSloggin(engine *gin.Engine, level log.Level) {
	logger := slog.Default()
	config := sloggin.Config{
		DefaultLevel:     log.ToSlogLevel(level),
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}

	engine.Use(sloggin.NewWithConfig(logger, config))
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "fraglog"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())
}
