package controllers

import (
	"werkstatt-backend/middlewares"
	"werkstatt-backend/models"
	"werkstatt-backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) CreateInvoice(c *fiber.Ctx) error {
	var in services.CreateInvoiceInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	invoice, err := h.svc.CreateInvoice(c.UserContext(), tenant(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

func (h *Controller) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.svc.ListInvoices(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": invoices, "message": "success"})
}

func (h *Controller) GetInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	invoice, err := h.svc.GetInvoice(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// UpdateInvoice patches header fields, snapshots and (for DIRECT drafts) the item list.
func (h *Controller) UpdateInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in services.UpdateInvoiceInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	invoice, err := h.svc.UpdateInvoice(c.UserContext(), tenant(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func (h *Controller) ChangeInvoiceStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var body statusBody
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}
	invoice, err := h.svc.ChangeInvoiceStatus(c.UserContext(), tenant(c), id, models.InvoiceStatus(body.Status))
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func (h *Controller) RecalculateInvoice(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	invoice, err := h.svc.RecalculateInvoice(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func (h *Controller) AddInvoiceItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var line services.LineInput
	if err := middlewares.BindAndValidate(c, &line); err != nil {
		return err
	}
	invoice, err := h.svc.AddInvoiceItem(c.UserContext(), tenant(c), id, line)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

func (h *Controller) UpdateInvoiceItem(c *fiber.Ctx) error {
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
	invoice, err := h.svc.UpdateInvoiceItem(c.UserContext(), tenant(c), id, itemID, line)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

func (h *Controller) DeleteInvoiceItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "itemId")
	if err != nil {
		return err
	}
	invoice, err := h.svc.DeleteInvoiceItem(c.UserContext(), tenant(c), id, itemID)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}
