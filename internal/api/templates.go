package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/templates"
)

type TemplateHandler struct {
	svc *templates.Service
}

func NewTemplateHandler(svc *templates.Service) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type templateBody struct {
	TitleTemplate string            `json:"titleTemplate"`
	BodyTemplate  string            `json:"bodyTemplate"`
	Enabled       *bool             `json:"enabled"`
	SampleContext map[string]string `json:"sampleContext"`
}

func templateKey(c *fiber.Ctx) (model.EventType, model.Variant) {
	return model.EventType(c.Params("type")), model.Variant(c.Params("variant"))
}

func (h *TemplateHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.ListTemplates(c.UserContext())
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"templates":    list,
		"placeholders": templates.Vocabulary,
	})
}

func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	var body templateBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	t, v := templateKey(c)
	saved, validation, err := h.svc.UpdateTemplate(c.UserContext(), templates.UpdateInput{
		Type:          t,
		Variant:       v,
		TitleTemplate: body.TitleTemplate,
		BodyTemplate:  body.BodyTemplate,
		Enabled:       body.Enabled,
	})
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"template": saved,
		"warnings": validation.Warnings,
	})
}

func (h *TemplateHandler) Reset(c *fiber.Ctx) error {
	t, v := templateKey(c)
	saved, err := h.svc.ResetTemplate(c.UserContext(), t, v)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, saved)
}

func (h *TemplateHandler) Preview(c *fiber.Ctx) error {
	var body templateBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	t, v := templateKey(c)
	p, err := h.svc.PreviewTemplate(templates.PreviewInput{
		Type:          t,
		Variant:       v,
		TitleTemplate: body.TitleTemplate,
		BodyTemplate:  body.BodyTemplate,
		Sample:        body.SampleContext,
	})
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, p)
}
