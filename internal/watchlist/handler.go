package watchlist

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
	rg.GET("/watchlist", h.list)
	rg.POST("/watchlist", h.addOrUpdate)
	rg.PUT("/watchlist/:media_id", h.addOrUpdate)
	rg.DELETE("/watchlist/:media_id", h.remove)
	rg.GET("/watchlist/:media_id", h.getOne)
}

type upsertReq struct {
	MediaID    string `json:"media_id"` // required for POST
	Status     string `json:"status"`
	UserRating *int   `json:"user_rating"`
}

func (h *Handler) addOrUpdate(c *gin.Context) {
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
		mediaID = strings.TrimSpace(c.Param("media_id"))
	}
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}

	status := normalizeStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "status must be one of: watching, completed, planned, dropped",
		})
		return
	}

	if req.UserRating != nil && (*req.UserRating < 1 || *req.UserRating > 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_rating must be 1-10"})
		return
	}

	existing, err := h.Repo.Get(c.Request.Context(), claims.Username, mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	item := models.WatchlistItem{
		Username:   claims.Username,
		MediaID:    mediaID,
		Status:     status,
		UserRating: req.UserRating,
	}
	if err := h.Repo.Upsert(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	op := audit.OpInsert
	if existing != nil {
		op = audit.OpUpdate
	}
	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "watchlist_items",
		Op:       op,
		RecordID: mediaID,
		Details:  fmt.Sprintf("status=%s rating=%s", status, ratingString(req.UserRating)),
	})

	c.JSON(http.StatusOK, item)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		status = normalizeStatus(status)
		if status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.Username, status, limit, offset)
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

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaID := strings.TrimSpace(c.Param("media_id"))
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), claims.Username, mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "watchlist_items",
		Op:       audit.OpDelete,
		RecordID: mediaID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaID := strings.TrimSpace(c.Param("media_id"))
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}

	it, err := h.Repo.Get(c.Request.Context(), claims.Username, mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if it == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "watching":
		return "watching"
	case "completed":
		return "completed"
	case "planned", "plan_to_watch", "plan to watch":
		return "planned"
	case "dropped":
		return "dropped"
	default:
		return ""
	}
}

func ratingString(r *int) string {
	if r == nil {
		return "none"
	}
	return strconv.Itoa(*r)
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
