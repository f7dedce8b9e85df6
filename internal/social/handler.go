package social

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
	Users *auth.Repo
	Audit *audit.Recorder
}

func NewHandler(repo *Repo, users *auth.Repo, recorder *audit.Recorder) *Handler {
	return &Handler{Repo: repo, Users: users, Audit: recorder}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/friends", h.list)
	rg.POST("/friends/:username", h.request)
	rg.PUT("/friends/:username/accept", h.accept)
	rg.PUT("/friends/:username/block", h.block)
	rg.DELETE("/friends/:username", h.remove)
}

func (h *Handler) request(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	target := strings.TrimSpace(c.Param("username"))
	if target == "" || target == claims.Username {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target username"})
		return
	}

	if u, err := h.Users.GetByUsername(c.Request.Context(), target); err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	existing, err := h.Repo.Get(c.Request.Context(), claims.Username, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "relationship already exists", "status": existing.Status})
		return
	}

	if err := h.Repo.Request(c.Request.Context(), claims.Username, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "friends",
		Op:       audit.OpInsert,
		RecordID: friendPairID(claims.Username, target),
		Details:  fmt.Sprintf("requested %s", target),
	})

	c.JSON(http.StatusCreated, gin.H{"status": StatusPending})
}

func (h *Handler) accept(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requester := strings.TrimSpace(c.Param("username"))
	ok, err := h.Repo.Accept(c.Request.Context(), claims.Username, requester)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accept failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending request"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "friends",
		Op:       audit.OpUpdate,
		RecordID: friendPairID(requester, claims.Username),
		Details:  fmt.Sprintf("accepted %s", requester),
	})

	c.JSON(http.StatusOK, gin.H{"status": StatusAccepted})
}

func (h *Handler) block(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	target := strings.TrimSpace(c.Param("username"))
	if target == "" || target == claims.Username {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target username"})
		return
	}

	if u, err := h.Users.GetByUsername(c.Request.Context(), target); err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.Repo.Block(c.Request.Context(), claims.Username, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block failed"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "friends",
		Op:       audit.OpUpdate,
		RecordID: friendPairID(claims.Username, target),
		Details:  fmt.Sprintf("blocked %s", target),
	})

	c.JSON(http.StatusOK, gin.H{"status": StatusBlocked})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	other := strings.TrimSpace(c.Param("username"))
	ok, err := h.Repo.Remove(c.Request.Context(), claims.Username, other)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:    claims.Username,
		Table:    "friends",
		Op:       audit.OpDelete,
		RecordID: friendPairID(claims.Username, other),
		Details:  fmt.Sprintf("removed %s", other),
	})

	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	switch status {
	case "", StatusPending, StatusAccepted, StatusBlocked:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	limit := parseInt(c.Query("limit"), 50)
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

// friendPairID is the audit record id for a directed friendship row.
func friendPairID(a, b string) string {
	return a + "/" + b
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
