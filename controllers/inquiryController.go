package controllers

import (
	"context"

	"werkstatt-backend/middlewares"
	"werkstatt-backend/models"
	"werkstatt-backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) CreateInquiry(c *fiber.Ctx) error {
	var in services.CreateInquiryInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	inquiry, err := h.svc.CreateInquiry(c.UserContext(), tenant(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inquiry)
}

func (h *Controller) GetInquiries(c *fiber.Ctx) error {
	inquiries, err := h.svc.ListInquiries(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiries": inquiries, "message": "success"})
}

func (h *Controller) GetInquiry(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	inquiry, err := h.svc.GetInquiry(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(inquiry)
}

func (h *Controller) AssignTechnician(c *fiber.Ctx) error {
	return h.technicianChange(c, h.svc.AssignTechnician)
}

func (h *Controller) UpdateTechnician(c *fiber.Ctx) error {
	return h.technicianChange(c, h.svc.UpdateTechnician)
}

func (h *Controller) technicianChange(c *fiber.Ctx, apply func(ctx context.Context, tenantID string, id, technicianID uint) (*models.Inquiry, error)) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var body technicianBody
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}
	inquiry, err := apply(c.UserContext(), tenant(c), id, body.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(inquiry)
}

func (h *Controller) MarkInquiryDone(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	inquiry, err := h.svc.MarkInquiryDone(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(inquiry)
}

func (h *Controller) CancelInquiry(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	inquiry, err := h.svc.CancelInquiry(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(inquiry)
}

func (h *Controller) DeleteInquiry(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInquiry(c.UserContext(), tenant(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
