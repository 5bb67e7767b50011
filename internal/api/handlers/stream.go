/**
 * @description
 * Live price stream handler. Pushes price updates recorded during ingestion
 * to dashboard clients over Server-Sent Events, fanned out by PriceStreamHub.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/superprecios/backend/internal/services"
)

type StreamHandler struct {
	Hub *services.PriceStreamHub
}

func NewStreamHandler(hub *services.PriceStreamHub) *StreamHandler {
	return &StreamHandler{Hub: hub}
}

// StreamPriceUpdates streams live price updates over SSE
// GET /api/v1/products/stream?retailer=
func (h *StreamHandler) StreamPriceUpdates(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	retailer := c.Query("retailer")
	requestCtx := c.Context()

	updates, unsubscribe := h.Hub.Subscribe(retailer)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case payload, ok := <-updates:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
