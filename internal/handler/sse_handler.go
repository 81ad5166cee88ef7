package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/robinhoot/robinhoot_api/internal/sse"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// SSEHandler streams live price changes to storefront clients.
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream handles GET /v1/prices/stream?productIds=1,2
// Price changes are public, so no token is required. Without productIds the
// stream carries the whole catalog.
func (h *SSEHandler) Stream(c *gin.Context) {
	productIDs, err := parseProductIDs(c.Query("productIds"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_PRODUCT_IDS", "productIds must be a comma-separated list of positive integers")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	sub := h.hub.Subscribe(productIDs...)
	defer h.hub.Unsubscribe(sub)

	c.SSEvent("connected", gin.H{
		"clientId":   sub.ID,
		"productIds": productIDs,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", sub.ID).Ints("product_ids", productIDs).Msg("Price SSE stream started")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(sse.EventPriceChanged), string(data))
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func parseProductIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 {
			return nil, strconv.ErrSyntax
		}
		ids = append(ids, id)
	}
	return ids, nil
}
