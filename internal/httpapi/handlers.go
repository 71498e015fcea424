package httpapi

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/store"
)

// triggerTimeout bounds how long the HTTP adapter will wait on the
// external-trigger invocation before the ingest response is sent; the
// trigger itself never blocks the ingest result, only the response
// latency.
const triggerTimeout = 20 * time.Second

func (s *Server) handleIngest(c *fiber.Ctx) error {
	var m models.InboundMessage
	if err := c.BodyParser(&m); err != nil {
		return errors.New(errors.ErrInvalidInput, "request body is not valid JSON")
	}

	entry, err := s.svc.IngestMessage(m)
	if err != nil {
		return err
	}

	if entry.Direction == models.DirectionIn && entry.Text != nil {
		ctx, cancel := context.WithTimeout(c.Context(), triggerTimeout)
		s.trigger.Invoke(ctx, s.selfURL, string(entry.Platform), entry.PlatformChatID, entry.ID, *entry.Text)
		cancel()
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (s *Server) handleRecordResponse(c *fiber.Ctx) error {
	var r models.OutboundRequest
	if err := c.BodyParser(&r); err != nil {
		return errors.New(errors.ErrInvalidInput, "request body is not valid JSON")
	}

	entry, err := s.svc.RecordResponse(r)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (s *Server) handleConversationTimeline(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))
	chatID := c.Params("chatId")

	q, err := parseTimelineQuery(c)
	if err != nil {
		return err
	}

	entries, err := s.svc.GetTimeline(platform, chatID, q)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (s *Server) handleUnifiedTimeline(c *fiber.Ctx) error {
	q, err := parseTimelineQuery(c)
	if err != nil {
		return err
	}

	entries, err := s.svc.GetUnifiedTimeline(q)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	var platform *models.Platform
	if p := c.Query("platform"); p != "" {
		pv := models.Platform(p)
		platform = &pv
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return errors.New(errors.ErrInvalidInput, "limit must be an integer")
		}
		limit = parsed
	}

	conversations, err := s.svc.ListConversations(platform, limit)
	if err != nil {
		return err
	}
	return c.JSON(conversations)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))
	chatID := c.Params("chatId")

	conv, ok, err := s.svc.GetConversation(platform, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrNotFound, "Conversation not found")
	}
	return c.JSON(conv)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	stats, err := s.svc.HealthCheck()
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func parseTimelineQuery(c *fiber.Ctx) (store.TimelineQuery, error) {
	var q store.TimelineQuery

	if a := c.Query("after"); a != "" {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return q, errors.New(errors.ErrInvalidInput, "after must be an integer")
		}
		q.After = &v
	}
	if b := c.Query("before"); b != "" {
		v, err := strconv.ParseInt(b, 10, 64)
		if err != nil {
			return q, errors.New(errors.ErrInvalidInput, "before must be an integer")
		}
		q.Before = &v
	}
	if l := c.Query("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			return q, errors.New(errors.ErrInvalidInput, "limit must be an integer")
		}
		q.Limit = v
	}
	return q, nil
}
