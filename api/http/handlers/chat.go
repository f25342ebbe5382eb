package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/greenswap/greenswap/api/http/presenter"
	"github.com/greenswap/greenswap/pkg/chat"
	"github.com/greenswap/greenswap/pkg/security/jwt"
	"github.com/greenswap/greenswap/pkg/tools"
)

type ChatHandler struct {
	uc       chat.UseCase
	registry *tools.Registry
}

func NewChatHandler(uc chat.UseCase, registry *tools.Registry) *ChatHandler {
	return &ChatHandler{uc: uc, registry: registry}
}

type chatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ID       string           `json:"id"`
	Messages []chatMessageDTO `json:"messages"`
}

// Stream runs one chat turn and streams the reply as Server-Sent Events.
// @Summary Stream a chat turn
// @Description Forwards the conversation to the model with a sustainability-biased prompt and streams tokens back.
// @Tags        chat
// @Accept      json
// @Produce     text/event-stream
// @Param       input body chatRequest true "conversation id and message history"
// @Security    BearerAuth
// @Success     200 {string} string "SSE stream, data: frames terminated by [DONE]"
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     401 {object} presenter.ErrorResponse
// @Failure     502 {object} presenter.ErrorResponse
// @Router      /chat [post]
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	uid, ok := jwt.UserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "unauthorized")
	}
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if strings.TrimSpace(req.ID) == "" {
		return presenter.Error(c, http.StatusBadRequest, "conversation id is required")
	}
	messages := make([]chat.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chat.Message{Role: m.Role, Content: m.Content})
	}

	// The fasthttp request ctx is not cancelled per connection, so the
	// stream gets its own cancelable ctx released when the writer exits.
	ctx, cancel := context.WithCancel(c.Context())
	stream, err := h.uc.StreamTurn(ctx, uid, req.ID, messages)
	if err != nil {
		cancel()
		if errors.Is(err, chat.ErrEmptyConversation) {
			return presenter.Error(c, http.StatusBadRequest, "conversation has no non-empty messages")
		}
		return presenter.Error(c, http.StatusBadGateway, "failed to start generation")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for chunk := range stream {
			if chunk.Err != nil {
				_, _ = fmt.Fprintf(w, "data: {\"error\":%q}\n\n", chunk.Err.Error())
				_ = w.Flush()
				return
			}
			writeSSEData(w, chunk.Text)
			if err := w.Flush(); err != nil {
				// Client went away.
				return
			}
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
		_ = w.Flush()
	}))
	return nil
}

// writeSSEData frames one chunk as an SSE event. A chunk containing newlines
// becomes consecutive data: lines of the same event, which conforming clients
// rejoin with "\n".
func writeSSEData(w *bufio.Writer, text string) {
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

// Delete removes a conversation owned by the requester.
// @Summary Delete a conversation
// @Tags    chat
// @Produce json
// @Param   id query string true "conversation id"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /chat [delete]
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	// Missing id wins over missing session, hence the optional-auth route.
	id := c.Query("id")
	if id == "" {
		return presenter.Error(c, http.StatusNotFound, "conversation id is required")
	}
	uid, ok := jwt.UserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "unauthorized")
	}
	err := h.uc.Delete(c.Context(), uid, id)
	switch {
	case err == nil:
		return presenter.JSON(c, http.StatusOK, fiber.Map{"message": "chat deleted"})
	case errors.Is(err, chat.ErrNotFound):
		return presenter.Error(c, http.StatusNotFound, "conversation not found")
	case errors.Is(err, chat.ErrNotOwner):
		return presenter.Error(c, http.StatusUnauthorized, "unauthorized")
	default:
		return presenter.Error(c, http.StatusInternalServerError, "failed to delete conversation")
	}
}

// History lists the requester's conversations.
// @Summary List my conversations
// @Tags    chat
// @Produce json
// @Param   limit query int false "page size (max 200)"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {array} chat.Summary
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /chats [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	uid, ok := jwt.UserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "unauthorized")
	}
	limit, offset := parseLimitOffset(c, 50)
	summaries, err := h.uc.History(c.Context(), uid, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list conversations")
	}
	return presenter.JSON(c, http.StatusOK, summaries)
}

// Tools lists the registered tool definitions.
// @Summary List chat tools
// @Tags    chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} tools.Definition
// @Router  /chat/tools [get]
func (h *ChatHandler) Tools(c *fiber.Ctx) error {
	return presenter.JSON(c, http.StatusOK, h.registry.Definitions())
}
