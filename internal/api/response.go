package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/storage"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func failure(c *gin.Context, status int, kind app.NoticeKind, message string) {
	c.AbortWithStatusJSON(status, Response{Error: message, Kind: string(kind)})
}

func badRequest(c *gin.Context, err error) {
	failure(c, http.StatusBadRequest, app.NoticeValidation, err.Error())
}

// respondNotice writes the outcome of a controller command. A cancelled
// command means the client still has to confirm it.
func respondNotice(c *gin.Context, notice app.Notice, data any) {
	switch notice.Kind {
	case app.NoticeOK:
		success(c, data)
	case app.NoticeCancelled:
		failure(c, http.StatusConflict, notice.Kind, "confirmation required")
	case app.NoticeValidation:
		failure(c, http.StatusUnprocessableEntity, notice.Kind, notice.Message)
	default:
		failure(c, http.StatusInternalServerError, notice.Kind, notice.Message)
	}
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		failure(c, http.StatusNotFound, app.NoticeIO, err.Error())
		return
	}
	respondNotice(c, app.Classify(err), nil)
}
