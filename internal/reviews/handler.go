package reviews

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchplan/internal/audit"
	"watchplan/internal/auth"
)

type Handler struct {
	Repo  *Repo
	Audit *audit.Recorder
}

func NewHandler(repo *Repo, recorder *audit.Recorder) *Handler {
	return &Handler{Repo: repo, Audit: recorder}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/media/:id/reviews", h.listByMedia)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.create)
	rg.PUT("/reviews/:id", h.update)
	rg.DELETE("/reviews/:id", h.delete)
}

type reviewReq struct {
	MediaID string `json:"media_id"`
	Rating  int    `json:"rating"`
	Text    string `json:"review_text"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	mediaID := strings.TrimSpace(req.MediaID)
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}
	if req.Rating < 1 || req.Rating > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}

	review, err := h.Repo.Create(c.Request.Context(), claims.Username, mediaID, req.Rating, strings.TrimSpace(req.Text))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "reviews",
		Op:       audit.OpInsert,
		RecordID: review.ID,
		Details:  fmt.Sprintf("media_id=%s rating=%d", mediaID, req.Rating),
	})

	c.JSON(http.StatusCreated, review)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Rating < 1 || req.Rating > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}

	review, err := h.Repo.Update(c.Request.Context(), id, claims.Username, req.Rating, strings.TrimSpace(req.Text))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "reviews",
		Op:       audit.OpUpdate,
		RecordID: review.ID,
		Details:  fmt.Sprintf("media_id=%s rating=%d", review.MediaID, req.Rating),
	})

	c.JSON(http.StatusOK, review)
}

func (h *Handler) listByMedia(c *gin.Context) {
	mediaID := strings.TrimSpace(c.Param("id"))
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media id required"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.ListByMedia(c.Request.Context(), mediaID, limit, offset)
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

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), id, claims.Username)
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
		Table:    "reviews",
		Op:       audit.OpDelete,
		RecordID: id,
	})

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
