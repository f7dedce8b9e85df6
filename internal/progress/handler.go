package progress

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchplan/internal/audit"
	"watchplan/internal/auth"
	"watchplan/pkg/models"
)

type Handler struct {
	Repo  *Repo
	Audit *audit.Recorder
}

func NewHandler(repo *Repo, recorder *audit.Recorder) *Handler {
	return &Handler{Repo: repo, Audit: recorder}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/progress", h.list)
	rg.POST("/progress", h.upsert)
	rg.GET("/progress/:media_id", h.getOne)
}

type upsertReq struct {
	MediaID   string `json:"media_id"`
	EpisodeID string `json:"episode_id"`
}

func (h *Handler) upsert(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	mediaID := strings.TrimSpace(req.MediaID)
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}

	existing, err := h.Repo.Get(c.Request.Context(), claims.Username, mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	p := models.SeriesProgress{
		Username:      claims.Username,
		MediaID:       mediaID,
		LastEpisodeID: strings.TrimSpace(req.EpisodeID),
	}
	if err := h.Repo.Upsert(c.Request.Context(), p); err != nil {
		if strings.Contains(err.Error(), "does not belong") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "episode does not belong to media"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	op := audit.OpInsert
	if existing != nil {
		op = audit.OpUpdate
	}
	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "series_progress",
		Op:       op,
		RecordID: mediaID,
		Details:  fmt.Sprintf("last_watched_episode_id=%s", emptyAs(p.LastEpisodeID, "none")),
	})

	saved, err := h.Repo.Get(c.Request.Context(), claims.Username, mediaID)
	if err != nil || saved == nil {
		c.JSON(http.StatusOK, p)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.Username, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaID := strings.TrimSpace(c.Param("media_id"))
	p, err := h.Repo.Get(c.Request.Context(), claims.Username, mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func emptyAs(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
