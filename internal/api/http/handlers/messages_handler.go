package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/api/dto"
	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/service"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// MessagesHandler serves the chat endpoints for clients and admins.
type MessagesHandler struct {
	messages      *service.MessageService
	conversations *service.ConversationService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messages *service.MessageService, conversations *service.ConversationService) *MessagesHandler {
	return &MessagesHandler{messages: messages, conversations: conversations}
}

// Send POST /chat/messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.messages.Append(c.UserContext(), auth.SessionFromContext(c), req.ClientID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// List GET /chat/messages?client_id=&cursor=&limit=.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	var cursor *int64
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("cursor must be an integer", map[string]any{"cursor": raw})
		}
		cursor = &parsed
	}
	msgs, err := h.messages.ListSince(c.UserContext(), auth.SessionFromContext(c), c.Query("client_id"), cursor, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, dto.NewMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead PUT /chat/messages/:id/read.
func (h *MessagesHandler) MarkRead(c *fiber.Ctx) error {
	msg, err := h.messages.MarkRead(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// Conversations GET /chat/conversations.
func (h *MessagesHandler) Conversations(c *fiber.Ctx) error {
	summaries, err := h.conversations.ListConversations(c.UserContext(), auth.SessionFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.ConversationResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.NewConversationResponse(s))
	}
	return c.JSON(fiber.Map{"data": items})
}
