package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ibp/labeld/internal/history"
	"github.com/ibp/labeld/internal/queue"
	"github.com/ibp/labeld/internal/render"
)

// PrintHandler is the inbound request receiver. It owns all validation: a
// job that reaches the queue is guaranteed to have the six required string
// fields within the length limit.
type PrintHandler struct {
	queue          *queue.Queue
	history        *history.Store
	notifier       queue.Notifier
	maxPayload     int64
	maxFieldLength int
}

func NewPrintHandler(q *queue.Queue, store *history.Store, notifier queue.Notifier, maxPayload int64, maxFieldLength int) *PrintHandler {
	return &PrintHandler{
		queue:          q,
		history:        store,
		notifier:       notifier,
		maxPayload:     maxPayload,
		maxFieldLength: maxFieldLength,
	}
}

// Submit accepts a form-encoded body whose "data" field holds the label
// JSON, the wire format the label kiosk has always spoken.
func (h *PrintHandler) Submit(c *gin.Context) {
	if c.Request.ContentLength < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Content-Length"})
		return
	}
	if c.Request.ContentLength > h.maxPayload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPayload))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request body"})
		return
	}

	data := form.Get("data")
	if data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'data' field"})
		return
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	label, reason := h.validate(raw)
	if reason != "" {
		h.reject(c, raw, reason)
		return
	}

	job := queue.NewJob(label)
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}

	slog.Info("print job queued", "job", job.ID, "package_id", label.PackageID)
	c.JSON(http.StatusOK, gin.H{"status": "queued", "id": job.ID.String()})
}

// validate returns the parsed label, or an empty label and a reason string
// matching the kiosk's expected error messages.
func (h *PrintHandler) validate(raw map[string]any) (render.Label, string) {
	var missing []string
	fields := make(map[string]string, len(render.RequiredKeys()))

	for _, key := range render.RequiredKeys() {
		v, ok := raw[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		s, ok := v.(string)
		if !ok {
			return render.Label{}, fmt.Sprintf("Field '%s' must be a string", key)
		}
		if len(s) > h.maxFieldLength {
			return render.Label{}, fmt.Sprintf("Field '%s' is too long", key)
		}
		fields[key] = s
	}

	if len(missing) > 0 {
		return render.Label{}, "Missing required keys: " + strings.Join(missing, ", ")
	}

	return render.Label{
		PackageID:          fields["package_id"],
		InmateID:           fields["inmate_id"],
		InmateName:         fields["inmate_name"],
		InmateJurisdiction: fields["inmate_jurisdiction"],
		UnitName:           fields["unit_name"],
		UnitShippingMethod: fields["unit_shipping_method"],
	}, ""
}

func (h *PrintHandler) reject(c *gin.Context, raw map[string]any, reason string) {
	packageID, _ := raw["package_id"].(string)
	slog.Warn("print request rejected", "package_id", packageID, "reason", reason)

	if h.history != nil {
		if err := h.history.RecordRejected(c.Request.Context(), packageID, reason); err != nil {
			slog.Error("failed to record rejection", "error", err)
		}
	}
	if h.notifier != nil {
		h.notifier.NotifyJobEvent("job_rejected", "", packageID, 0, reason)
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": reason})
}
