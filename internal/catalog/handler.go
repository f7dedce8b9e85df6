package catalog

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchplan/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/media", h.search)
	r.GET("/media/:id", h.getByID)
}

// search serves the browse and filter endpoint. A failed query is
// logged and answered with an empty page rather than an error, so the
// listing degrades instead of breaking.
func (h *Handler) search(c *gin.Context) {
	q, err := queryFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.Repo.Search(c.Request.Context(), q)
	if err != nil {
		log.Printf("[catalog] search failed: %v", err)
		results = []models.Media{}
	}

	total := 0
	if err == nil {
		if total, err = h.Repo.Count(c.Request.Context(), q); err != nil {
			log.Printf("[catalog] count failed: %v", err)
			total = len(results)
		}
	}

	page, size := q.clampPage()
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	detail, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("[catalog] get %s failed: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load media"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func queryFromRequest(c *gin.Context) (Query, error) {
	q := Query{
		Text:       strings.TrimSpace(c.Query("q")),
		MediaType:  c.Query("type"),
		Genres:     splitParam(c.Query("genres")),
		People:     splitParam(c.Query("people")),
		PeopleRole: Role(c.DefaultQuery("role", string(RoleAny))),
		Page:       intParam(c, "page", 1),
		PageSize:   intParam(c, "page_size", 20),
	}

	scopes := splitParam(c.Query("scopes"))
	if len(scopes) == 0 {
		q.Scopes = []Scope{ScopeTitle}
	} else {
		for _, s := range scopes {
			scope, ok := ParseScope(s)
			if !ok {
				// an unrecognized scope would make the text filter a
				// silent no-op, so refuse it instead
				return Query{}, fmt.Errorf("unknown scope %q", s)
			}
			q.Scopes = append(q.Scopes, scope)
		}
	}

	if v := c.Query("min_rating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinRating = &f
		}
	}
	return q, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
