package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	inbox, err := h.svc.ListForUser(c.UserContext(), identity(c).UserID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, inbox)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.svc.UnreadCount(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"unreadCount": n})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkRead(c.UserContext(), c.Params("id"), identity(c).UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkAllRead(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"updated": n})
}

func (h *NotificationHandler) ClearAll(c *fiber.Ctx) error {
	n, err := h.svc.ClearAll(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"deleted": n})
}

func (h *NotificationHandler) GetPreferences(c *fiber.Ctx) error {
	p, err := h.svc.GetPreferences(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, p)
}

func (h *NotificationHandler) UpdatePreferences(c *fiber.Ctx) error {
	var patch model.PreferencesPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	p, err := h.svc.UpdatePreferences(c.UserContext(), identity(c).UserID, patch)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, p)
}
