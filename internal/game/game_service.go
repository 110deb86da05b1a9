package game

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/internal/httphelper"
	"github.com/leighmacdonald/fraglog/pkg/log"
)

type gameHandler struct {
	games       *Games
	maxBodySize int64
}

// NewHandler attaches the submission endpoint to the router. maxBodySize
// bounds how much of a request body is read before rejecting it.
func NewHandler(engine *gin.Engine, games *Games, maxBodySize int64) {
	handler := gameHandler{games: games, maxBodySize: maxBodySize}

	engine.POST("/stats/submit", handler.onSubmit())
}

func (h gameHandler) onSubmit() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		body, errBody := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxBodySize))
		if errBody != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(errBody, &tooLarge) {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusRequestEntityTooLarge, errBody,
					"submission body exceeds %d bytes", h.maxBodySize))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, httphelper.ErrBadRequest))

			return
		}

		summary, errSubmit := h.games.Submit(ctx, string(body))
		if errSubmit != nil {
			switch {
			case errors.Is(errSubmit, domain.ErrInvalidSubmission),
				errors.Is(errSubmit, domain.ErrEmptySubmission),
				errors.Is(errSubmit, domain.ErrMalformedStat),
				errors.Is(errSubmit, domain.ErrMissingPlayerNick):
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errSubmit))
			default:
				slog.Error("Failed to persist submission", log.ErrAttr(errSubmit))
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, httphelper.ErrInternal))
			}

			return
		}

		ctx.String(http.StatusOK, "OK")

		slog.Debug("Handled submission", slog.Int64("game_id", summary.GameID))
	}
}
