package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/api/dto"
	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/service"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// TicketsHandler manages intake ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft := domain.TicketDraft{
		ClientName: req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Summary:    req.Summary,
		Urgency:    req.Urgency,
	}
	ticket, err := h.service.Submit(c.UserContext(), draft, req.TurnstileToken, c.IP())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketSubmittedResponse{
		ID:        ticket.ID,
		Status:    ticket.Status,
		CreatedAt: ticket.CreatedAt,
	}})
}

// List GET /admin/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		filter.Status = &s
	}
	if urgency := c.Query("urgency"); urgency != "" {
		u := domain.TicketUrgency(urgency)
		filter.Urgency = &u
	}
	tickets, err := h.service.List(c.UserContext(), auth.SessionFromContext(c), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /admin/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateStatus PUT /admin/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetStatus(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.Status, req.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateUrgency PUT /admin/tickets/:id/urgency.
func (h *TicketsHandler) UpdateUrgency(c *fiber.Ctx) error {
	var req dto.UpdateUrgencyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetUrgency(c.UserContext(), auth.SessionFromContext(c), c.Params("id"), req.Urgency, req.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// History GET /admin/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), auth.SessionFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewTicketHistoryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Delete DELETE /admin/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), auth.SessionFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
