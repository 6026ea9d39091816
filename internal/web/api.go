package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/risklens/internal/session"
	"github.com/Skufu/risklens/internal/storage"
	"github.com/Skufu/risklens/internal/theme"
)

// Notifications

func (s *Server) handleListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Notify.For(session.ClientID(c)).List())
}

func (s *Server) handleRemoveNotification(c *gin.Context) {
	if !s.deps.Notify.For(session.ClientID(c)).Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(c *gin.Context) {
	s.deps.Notify.For(session.ClientID(c)).ClearAll()
	c.Status(http.StatusNoContent)
}

// Theme

func (s *Server) themeBody(name string) gin.H {
	return gin.H{
		"theme":  name,
		"icon":   theme.ToggleIcon(name),
		"colors": s.deps.Theme.Colors(name),
		"css":    string(s.deps.Theme.Style(name)),
	}
}

func (s *Server) handleGetTheme(c *gin.Context) {
	name := s.deps.Theme.Current(c.Request.Context(), session.ClientID(c))
	body := s.themeBody(name)
	body["available"] = s.deps.Theme.Names()
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleToggleTheme(c *gin.Context) {
	name := s.deps.Theme.Toggle(c.Request.Context(), session.ClientID(c))
	c.JSON(http.StatusOK, s.themeBody(name))
}

func (s *Server) handleSetTheme(c *gin.Context) {
	name := c.Param("name")
	if err := s.deps.Theme.Apply(c.Request.Context(), session.ClientID(c), name); err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.themeBody(name))
}

// handleThemeTogglePage serves the no-script toggle button.
func (s *Server) handleThemeTogglePage(c *gin.Context) {
	s.deps.Theme.Toggle(c.Request.Context(), session.ClientID(c))
	c.Redirect(http.StatusSeeOther, "/")
}

// Storage

func scopeParam(c *gin.Context) (storage.Scope, bool) {
	scope, err := storage.ParseScope(c.Param("scope"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return "", false
	}
	return scope, true
}

func (s *Server) handleStorageGet(c *gin.Context) {
	scope, ok := scopeParam(c)
	if !ok {
		return
	}
	raw, found := s.deps.Storage.GetRaw(c.Request.Context(), session.ClientID(c), scope, c.Param("key"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "value": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "value": raw})
}

func (s *Server) handleStorageSet(c *gin.Context) {
	scope, ok := scopeParam(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "body must be JSON"})
		return
	}
	saved := s.deps.Storage.Set(c.Request.Context(), session.ClientID(c), scope, c.Param("key"), json.RawMessage(body))
	if !saved {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleStorageRemove(c *gin.Context) {
	scope, ok := scopeParam(c)
	if !ok {
		return
	}
	removed := s.deps.Storage.Remove(c.Request.Context(), session.ClientID(c), scope, c.Param("key"))
	c.JSON(http.StatusOK, gin.H{"success": removed})
}

func (s *Server) handleStorageClear(c *gin.Context) {
	scope, ok := scopeParam(c)
	if !ok {
		return
	}
	cleared := s.deps.Storage.Clear(c.Request.Context(), session.ClientID(c), scope)
	c.JSON(http.StatusOK, gin.H{"success": cleared})
}

// Analytics

type trackRequest struct {
	Name      string         `json:"name"`
	ElementID string         `json:"elementId"`
	Data      map[string]any `json:"data"`
}

func (s *Server) handleAnalyticsExport(c *gin.Context) {
	raw, err := s.deps.Analytics.For(session.ClientID(c)).Export()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) handleAnalyticsTrack(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	c.JSON(http.StatusCreated, s.deps.Analytics.For(session.ClientID(c)).TrackEvent(req.Name, req.Data))
}

func (s *Server) handleAnalyticsClick(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ElementID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "elementId is required"})
		return
	}
	c.JSON(http.StatusCreated, s.deps.Analytics.For(session.ClientID(c)).TrackClick(req.ElementID))
}

func (s *Server) handleAnalyticsClear(c *gin.Context) {
	s.deps.Analytics.For(session.ClientID(c)).Clear()
	c.Status(http.StatusNoContent)
}
