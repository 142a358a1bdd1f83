package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/storage"
)

var errNoFileStore = errors.New("saved files are not available")

type fileRequest struct {
	Name string `json:"name"`
}

type modeRequest struct {
	Collection *bool `json:"collection" binding:"required"`
}

func (s *Server) newFile(c *gin.Context) {
	notice := s.ctrl.NewFile(commandContext(c))
	respondNotice(c, notice, s.current())
}

// saveFile stores the single file under name, or under its current key
// when name is empty.
func (s *Server) saveFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if req.Name == "" {
		state := s.ctrl.Workspace().State()
		if state.Mode != document.ModeSingleFile {
			respondNotice(c, app.Classify(document.ErrWrongMode), nil)
			return
		}
		if state.Path == "" {
			badRequest(c, errors.New("name is required for a new file"))
			return
		}
		respondNotice(c, s.ctrl.SaveFile(ctx), s.current())
		return
	}
	loc, ok := s.fileLocation(c, req.Name)
	if !ok {
		return
	}
	respondNotice(c, s.ctrl.SaveFileTo(ctx, loc), s.current())
}

func (s *Server) loadFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	loc, ok := s.fileLocation(c, req.Name)
	if !ok {
		return
	}
	found, err := s.files.Exists(c.Request.Context(), loc)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, fmt.Errorf("file %q: %w", req.Name, storage.ErrNotFound))
		return
	}
	notice := s.ctrl.OpenFile(commandContext(c), loc)
	respondNotice(c, notice, s.current())
}

func (s *Server) listFiles(c *gin.Context) {
	if s.files == nil {
		success(c, []string{})
		return
	}
	names, err := s.files.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	success(c, names)
}

// downloadFile sends the single file's text as an attachment.
func (s *Server) downloadFile(c *gin.Context) {
	if s.ctrl.Workspace().Mode() != document.ModeSingleFile {
		respondNotice(c, app.Classify(document.ErrWrongMode), nil)
		return
	}
	file := s.ctrl.Workspace().File()
	name := file.Name
	if filepath.Ext(name) == "" {
		name += ".txt"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(file.Content))
}

func (s *Server) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	notice := s.ctrl.SetCollectionMode(c.Request.Context(), *req.Collection)
	respondNotice(c, notice, s.current())
}

func (s *Server) fileLocation(c *gin.Context, name string) (storage.Location, bool) {
	if s.files == nil {
		respondError(c, fmt.Errorf("%w: %w", storage.ErrUnsupported, errNoFileStore))
		return "", false
	}
	loc, err := s.files.Location(name)
	if err != nil {
		badRequest(c, err)
		return "", false
	}
	return loc, true
}
