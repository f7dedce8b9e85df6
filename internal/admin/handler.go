package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchplan/internal/audit"
	"watchplan/internal/auth"
	"watchplan/internal/seed"
)

type Handler struct {
	Editor *Editor
	Audit  *audit.Recorder
}

func NewHandler(editor *Editor, rec *audit.Recorder) *Handler {
	return &Handler{Editor: editor, Audit: rec}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tables", h.listTables)
	rg.GET("/tables/:table/columns", h.describe)
	rg.GET("/tables/:table/rows", h.listRows)
	rg.GET("/tables/:table/rows/:id", h.getRow)
	rg.POST("/tables/:table/rows", h.insert)
	rg.PUT("/tables/:table/rows/:id", h.update)
	rg.DELETE("/tables/:table/rows/:id", h.deleteRow)
	rg.GET("/activity", h.activity)
	rg.POST("/seed", h.reset)
}

func (h *Handler) listTables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": h.Editor.Registry.Names()})
}

func (h *Handler) describe(c *gin.Context) {
	table := c.Param("table")
	cols, err := h.Editor.Introspector.Describe(c.Request.Context(), table)
	if err != nil {
		writeEditorError(c, err)
		return
	}

	type colInfo struct {
		Column
		Editable bool `json:"editable"`
	}
	out := make([]colInfo, 0, len(cols))
	for _, col := range cols {
		out = append(out, colInfo{Column: col, Editable: Editable(col)})
	}

	c.JSON(http.StatusOK, gin.H{
		"table":      table,
		"identifier": IdentifierColumn(cols),
		"columns":    out,
	})
}

func (h *Handler) listRows(c *gin.Context) {
	table := c.Param("table")
	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	records, cols, err := h.Editor.List(c.Request.Context(), table, limit, offset)
	if err != nil {
		writeEditorError(c, err)
		return
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"table":   table,
		"columns": names,
		"limit":   limit,
		"offset":  offset,
		"rows":    records,
	})
}

func (h *Handler) getRow(c *gin.Context) {
	record, err := h.Editor.Fetch(c.Request.Context(), c.Param("table"), c.Param("id"))
	if err != nil {
		writeEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) insert(c *gin.Context) {
	table := c.Param("table")
	if table == "activity_log" {
		c.JSON(http.StatusForbidden, gin.H{"error": "activity log is append-only"})
		return
	}

	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	id, err := h.Editor.Insert(c.Request.Context(), actor(c), table, values)
	if err != nil {
		writeEditorError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"table": table, "record_id": id})
}

func (h *Handler) update(c *gin.Context) {
	table := c.Param("table")
	if table == "activity_log" {
		c.JSON(http.StatusForbidden, gin.H{"error": "activity log is append-only"})
		return
	}

	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	changed, err := h.Editor.Update(c.Request.Context(), actor(c), table, c.Param("id"), fields)
	if errors.Is(err, ErrNothingToUpdate) {
		// a validation outcome, not a failure
		c.JSON(http.StatusOK, gin.H{"changed": 0, "warning": "nothing to update"})
		return
	}
	if err != nil {
		writeEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) deleteRow(c *gin.Context) {
	table := c.Param("table")
	if table == "activity_log" {
		c.JSON(http.StatusForbidden, gin.H{"error": "activity log is append-only"})
		return
	}

	if err := h.Editor.Delete(c.Request.Context(), actor(c), table, c.Param("id")); err != nil {
		writeEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) activity(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	entries, total, err := h.Audit.List(c.Request.Context(), c.Query("table"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  entries,
	})
}

// reset wipes the database and reloads the bundled sample catalog. The bulk
// load itself is not audited; a single summary entry marks who triggered it.
func (h *Handler) reset(c *gin.Context) {
	if err := seed.Run(c.Request.Context(), h.Editor.DB); err != nil {
		log.Printf("[admin] seed reset failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "seed failed"})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Entry{
		Actor:   actor(c),
		Table:   "media",
		Op:      audit.OpInsert,
		Details: "sample catalog reloaded",
	})
	c.JSON(http.StatusOK, gin.H{"seeded": true})
}

func actor(c *gin.Context) string {
	if claims := auth.MustGetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}

func writeEditorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownTable):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table"})
	case errors.Is(err, ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ErrUnknownColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no non-blank fields supplied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
