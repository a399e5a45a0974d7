package controllers

import (
	"werkstatt-backend/middlewares"
	"werkstatt-backend/services"

	"github.com/gofiber/fiber/v2"
)

// CreatePayment records a payment and returns it together with the updated invoice ledger.
func (h *Controller) CreatePayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in services.AddPaymentInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	payment, invoice, err := h.svc.AddPayment(c.UserContext(), tenant(c), id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment, "invoice": invoice})
}

func (h *Controller) ListPayments(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	payments, err := h.svc.ListPayments(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments, "message": "success"})
}

func (h *Controller) DeletePayment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	invoice, err := h.svc.DeletePayment(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}
