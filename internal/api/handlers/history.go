package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibp/labeld/internal/history"
	"github.com/ibp/labeld/internal/queue"
)

type ListJobsQuery struct {
	Outcome string `form:"outcome"`
	Limit   int    `form:"limit" binding:"max=100"`
	Offset  int    `form:"offset"`
}

type HistoryHandler struct {
	store *history.Store
	loop  *queue.Loop
}

func NewHistoryHandler(store *history.Store, loop *queue.Loop) *HistoryHandler {
	return &HistoryHandler{store: store, loop: loop}
}

func (h *HistoryHandler) ListJobs(c *gin.Context) {
	var query ListJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.store.ListOutcomes(c.Request.Context(), history.Filter{
		Outcome: query.Outcome,
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": entries})
}

func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	resp := gin.H{"history": stats}
	if h.loop != nil {
		resp["queue"] = h.loop.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
