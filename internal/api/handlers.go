package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/export"
	"github.com/csheth/blink/internal/storage"
)

type collectionView struct {
	Mode         string             `json:"mode"`
	Title        string             `json:"title"`
	Chapters     []document.Chapter `json:"chapters"`
	CurrentIndex int                `json:"currentChapterIndex"`
	Content      string             `json:"content"`
	Modified     bool               `json:"modified"`
	SavedAt      time.Time          `json:"savedAt,omitzero"`
	Stats        document.Stats     `json:"stats"`
}

func viewOf(s document.Snapshot) collectionView {
	return collectionView{
		Mode:         s.Mode.String(),
		Title:        s.Title,
		Chapters:     s.Chapters,
		CurrentIndex: s.CurrentIndex,
		Content:      s.Buffer,
		Modified:     s.Modified,
		SavedAt:      s.SavedAt,
		Stats:        s.DocumentStats,
	}
}

func (s *Server) current() collectionView {
	return viewOf(s.ctrl.Workspace().State())
}

func (s *Server) getCollection(c *gin.Context) {
	success(c, s.current())
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Server) updateCollection(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Title != nil {
		if notice := s.ctrl.RenameCollection(c.Request.Context(), *req.Title); !notice.OK() {
			respondNotice(c, notice, nil)
			return
		}
	}
	if req.Content != nil {
		s.ctrl.Edit(*req.Content)
	}
	success(c, s.current())
}

func (s *Server) newCollection(c *gin.Context) {
	notice := s.ctrl.NewCollection(commandContext(c))
	respondNotice(c, notice, s.current())
}

func (s *Server) saveCollection(c *gin.Context) {
	notice := s.ctrl.SaveCollection(c.Request.Context())
	respondNotice(c, notice, s.current())
}

func (s *Server) addChapter(c *gin.Context) {
	notice := s.ctrl.AddChapter(c.Request.Context())
	respondNotice(c, notice, s.current())
}

func chapterIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid chapter index %q", c.Param("index")))
		return 0, false
	}
	return index, true
}

func (s *Server) selectChapter(c *gin.Context) {
	index, ok := chapterIndex(c)
	if !ok {
		return
	}
	notice := s.ctrl.SelectChapter(c.Request.Context(), index)
	respondNotice(c, notice, s.current())
}

func (s *Server) deleteChapter(c *gin.Context) {
	index, ok := chapterIndex(c)
	if !ok {
		return
	}
	notice := s.ctrl.DeleteChapter(commandContext(c), index)
	respondNotice(c, notice, s.current())
}

type renameRequest struct {
	Title string `json:"title"`
}

func (s *Server) renameChapter(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	notice := s.ctrl.RenameChapter(c.Request.Context(), req.Title)
	respondNotice(c, notice, s.current())
}

// exportCollection sends the collection as a download: plain text by
// default, or a single HTML page with format=html.
func (s *Server) exportCollection(c *gin.Context) {
	col := s.ctrl.Workspace().Collection()
	if c.Query("format") == "html" {
		page, err := export.HTML(col)
		if err != nil {
			respondError(c, err)
			return
		}
		name := export.SanitizeName(col.Title) + ".html"
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}
	name, body, err := export.TextBlob(col, s.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

type savedSummary struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Chapters int       `json:"chapters"`
	SavedAt  time.Time `json:"savedAt,omitzero"`
}

func (s *Server) listCollections(c *gin.Context) {
	if s.saved == nil {
		success(c, []savedSummary{})
		return
	}
	entries, err := s.saved.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]savedSummary, 0, len(entries))
	for i, entry := range entries {
		summary := savedSummary{Number: i + 1, Title: entry.Title, Chapters: len(entry.Chapters)}
		if entry.SavedAt != nil {
			summary.SavedAt = *entry.SavedAt
		}
		out = append(out, summary)
	}
	success(c, out)
}

type loadRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) loadCollection(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if s.saved != nil {
		if _, err := s.saved.Find(c.Request.Context(), req.Query); err != nil {
			respondError(c, err)
			return
		}
	}
	notice := s.ctrl.OpenCollection(commandContext(c), storage.Location(req.Query))
	respondNotice(c, notice, s.current())
}

type recoveryView struct {
	Mode      string    `json:"mode"`
	Age       string    `json:"age"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title,omitempty"`
	Chapters  int       `json:"chapters,omitempty"`
}

func (s *Server) getRecovery(c *gin.Context) {
	offer, err := s.ctrl.CheckRecovery(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if offer == nil {
		success(c, nil)
		return
	}
	view := recoveryView{
		Mode:      offer.Mode.String(),
		Age:       offer.Age.Round(time.Second).String(),
		Timestamp: offer.Snapshot.Time().UTC(),
	}
	if col := offer.Snapshot.Collection; col != nil {
		view.Title = col.Title
		view.Chapters = len(col.Chapters)
	}
	success(c, view)
}

func (s *Server) acceptRecovery(c *gin.Context) {
	offer, err := s.ctrl.CheckRecovery(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if offer == nil {
		failure(c, http.StatusNotFound, app.NoticeIO, "no recovery available")
		return
	}
	notice := s.ctrl.AcceptRecovery(c.Request.Context(), offer)
	respondNotice(c, notice, s.current())
}

func (s *Server) discardRecovery(c *gin.Context) {
	notice := s.ctrl.DiscardRecovery(c.Request.Context())
	respondNotice(c, notice, nil)
}

func (s *Server) getPrefs(c *gin.Context) {
	success(c, s.ctrl.Prefs())
}

type prefsRequest struct {
	Action string `json:"action" binding:"required,oneof=toggleDarkMode increaseFont decreaseFont resetFont toggleSidebar"`
}

func (s *Server) updatePrefs(c *gin.Context) {
	var req prefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	var notice app.Notice
	switch req.Action {
	case "toggleDarkMode":
		notice = s.ctrl.ToggleDarkMode(ctx)
	case "increaseFont":
		notice = s.ctrl.IncreaseFont(ctx)
	case "decreaseFont":
		notice = s.ctrl.DecreaseFont(ctx)
	case "resetFont":
		notice = s.ctrl.ResetFont(ctx)
	case "toggleSidebar":
		notice = s.ctrl.ToggleSidebar(ctx)
	}
	respondNotice(c, notice, s.ctrl.Prefs())
}
