package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/apperr"
	"scavenger-hunt/middleware"
)

const (
	progressPollInterval = 2 * time.Second

	// DefaultStreamMaxAge bounds one SSE connection. EventSource reconnects on
	// its own.
	DefaultStreamMaxAge = 30 * time.Minute
)

// StreamProgressSSE pushes the caller's progress document whenever it changes.
func (s *ProgressService) StreamProgressSSE(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return apperr.Unauthorized("missing user")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		s.streamProgress(context.Background(), w, userID, done)
	})

	return nil
}

// streamProgress writes the current document, then polls for changes until
// the connection ends or StreamMaxAge has passed.
func (s *ProgressService) streamProgress(ctx context.Context, w *bufio.Writer, userID string, done <-chan struct{}) {
	start := s.Clock.Now()
	ticker := s.Clock.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastUpdated time.Time
	push := func() bool {
		p, err := s.Ensure(ctx, userID)
		if err != nil {
			s.Log.Error().Err(err).Str("user_id", userID).Msg("[SSE] progress query failed")
			return true
		}
		if !lastUpdated.IsZero() && !p.UpdatedAt.After(lastUpdated) {
			// Comment line keeps proxies open and detects closed clients.
			fmt.Fprint(w, ":\n\n")
			return w.Flush() == nil
		}
		lastUpdated = p.UpdatedAt

		payload, err := json.Marshal(p)
		if err != nil {
			s.Log.Error().Err(err).Msg("[SSE] failed to encode progress")
			return true
		}
		fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
		return w.Flush() == nil
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ticker.Chan():
			if s.StreamMaxAge > 0 && s.Clock.Since(start) >= s.StreamMaxAge {
				s.Log.Debug().Str("user_id", userID).Msg("[SSE] stream reached max age")
				return
			}
			if !push() {
				s.Log.Debug().Str("user_id", userID).Msg("[SSE] client disconnected")
				return
			}
		case <-done:
			return
		}
	}
}
