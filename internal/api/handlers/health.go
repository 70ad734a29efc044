package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ibp/labeld/internal/discover"
	"github.com/ibp/labeld/internal/queue"
)

type HealthHandler struct {
	cache *discover.Cache
	loop  *queue.Loop
}

func NewHealthHandler(cache *discover.Cache, loop *queue.Loop) *HealthHandler {
	return &HealthHandler{cache: cache, loop: loop}
}

// Health reports discovered printers through a normal discovery call, so a
// probe sees exactly what the next dispatch would see.
func (h *HealthHandler) Health(c *gin.Context) {
	targets := h.cache.Targets(c.Request.Context())

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}

	status := "ok"
	if len(targets) == 0 {
		status = "degraded"
	}

	resp := gin.H{
		"status":  status,
		"service": "labeld",
		"printers": gin.H{
			"count": len(targets),
			"names": names,
		},
	}
	if h.loop != nil {
		resp["queue"] = h.loop.Stats()
	}

	c.JSON(http.StatusOK, resp)
}
