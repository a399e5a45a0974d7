package controllers

import (
	"werkstatt-backend/middlewares"
	"werkstatt-backend/models"
	"werkstatt-backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) CreateQuotation(c *fiber.Ctx) error {
	var in services.CreateQuotationInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	quotation, err := h.svc.CreateQuotation(c.UserContext(), tenant(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(quotation)
}

func (h *Controller) GetQuotations(c *fiber.Ctx) error {
	quotations, err := h.svc.ListQuotations(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"quotations": quotations, "message": "success"})
}

func (h *Controller) GetQuotation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	quotation, err := h.svc.GetQuotation(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(quotation)
}

func (h *Controller) UpdateQuotation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in services.UpdateQuotationInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	quotation, err := h.svc.UpdateQuotation(c.UserContext(), tenant(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(quotation)
}

func (h *Controller) ChangeQuotationStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var body statusBody
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}
	quotation, err := h.svc.ChangeQuotationStatus(c.UserContext(), tenant(c), id, models.QuotationStatus(body.Status))
	if err != nil {
		return err
	}
	return c.JSON(quotation)
}

func (h *Controller) DeleteQuotation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteQuotation(c.UserContext(), tenant(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Controller) AddQuotationItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var line services.LineInput
	if err := middlewares.BindAndValidate(c, &line); err != nil {
		return err
	}
	quotation, err := h.svc.AddQuotationItem(c.UserContext(), tenant(c), id, line)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(quotation)
}

func (h *Controller) UpdateQuotationItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "itemId")
	if err != nil {
		return err
	}
	var line services.LineInput
	if err := middlewares.BindAndValidate(c, &line); err != nil {
		return err
	}
	quotation, err := h.svc.UpdateQuotationItem(c.UserContext(), tenant(c), id, itemID, line)
	if err != nil {
		return err
	}
	return c.JSON(quotation)
}

func (h *Controller) DeleteQuotationItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "itemId")
	if err != nil {
		return err
	}
	quotation, err := h.svc.DeleteQuotationItem(c.UserContext(), tenant(c), id, itemID)
	if err != nil {
		return err
	}
	return c.JSON(quotation)
}
