package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
)

type confirmKey struct{}

// Confirm is the app.Confirm used by the browser host: the browser asks the
// user before sending the request, so a command is confirmed only when the
// request says so.
func Confirm(ctx context.Context, _ string) bool {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed
}

// Server exposes a Controller over JSON.
type Server struct {
	ctrl   *app.Controller
	saved  *storage.SavedCollections
	files  *storage.SavedFiles
	logger *log.Logger
	now    func() time.Time
}

func NewServer(ctrl *app.Controller, saved *storage.SavedCollections, files *storage.SavedFiles, logger *log.Logger) *Server {
	return &Server{
		ctrl:   ctrl,
		saved:  saved,
		files:  files,
		logger: logging.Component(logger, "api"),
		now:    time.Now,
	}
}

// Router builds the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/collection", s.getCollection)
		api.PUT("/collection", s.updateCollection)
		api.POST("/collection/new", s.newCollection)
		api.POST("/collection/save", s.saveCollection)
		api.GET("/collection/export", s.exportCollection)

		api.POST("/collection/chapters", s.addChapter)
		api.POST("/collection/chapters/:index/select", s.selectChapter)
		api.PUT("/collection/chapters/current", s.renameChapter)
		api.DELETE("/collection/chapters/:index", s.deleteChapter)

		api.POST("/file/new", s.newFile)
		api.POST("/file/save", s.saveFile)
		api.POST("/file/load", s.loadFile)
		api.GET("/file/download", s.downloadFile)
		api.GET("/files", s.listFiles)
		api.POST("/mode", s.setMode)

		api.GET("/collections", s.listCollections)
		api.POST("/collections/load", s.loadCollection)

		api.GET("/recovery", s.getRecovery)
		api.POST("/recovery/accept", s.acceptRecovery)
		api.POST("/recovery/discard", s.discardRecovery)

		api.GET("/prefs", s.getPrefs)
		api.POST("/prefs", s.updatePrefs)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// commandContext carries the confirm=true query flag to Confirm.
func commandContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if c.Query("confirm") == "true" {
		ctx = context.WithValue(ctx, confirmKey{}, true)
	}
	return ctx
}
