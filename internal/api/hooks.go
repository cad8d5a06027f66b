package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/ticket-notification-service/internal/service"
)

// HookHandler receives ticket events from the ticket service. Once the
// payload parses the answer is always 202; the notification outcome is
// reported in the body only.
type HookHandler struct {
	svc *service.NotificationService
}

func NewHookHandler(svc *service.NotificationService) *HookHandler {
	return &HookHandler{svc: svc}
}

func parseEvent(c *fiber.Ctx, ev any) error {
	if err := c.BodyParser(ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := service.ValidateEvent(ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func accepted(c *fiber.Ctx, created []*service.Created) error {
	return JSONSuccess(c, fiber.StatusAccepted, fiber.Map{"notifications": len(created)})
}

func (h *HookHandler) TicketCreated(c *fiber.Ctx) error {
	var ev service.TicketCreated
	if err := parseEvent(c, &ev); err != nil {
		return err
	}
	return accepted(c, h.svc.NotifyTicketCreated(c.UserContext(), ev))
}

func (h *HookHandler) TicketAssigned(c *fiber.Ctx) error {
	var ev service.TicketAssigned
	if err := parseEvent(c, &ev); err != nil {
		return err
	}
	return accepted(c, h.svc.NotifyTicketAssigned(c.UserContext(), ev))
}

func (h *HookHandler) TicketStatusUpdated(c *fiber.Ctx) error {
	var ev service.TicketStatusUpdated
	if err := parseEvent(c, &ev); err != nil {
		return err
	}
	return accepted(c, h.svc.NotifyTicketStatusUpdated(c.UserContext(), ev))
}

func (h *HookHandler) TicketNoteCreated(c *fiber.Ctx) error {
	var ev service.TicketNoteCreated
	if err := parseEvent(c, &ev); err != nil {
		return err
	}
	return accepted(c, h.svc.NotifyTicketNoteCreated(c.UserContext(), ev))
}
