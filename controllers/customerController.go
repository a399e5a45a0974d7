package controllers

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Controller) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.svc.ListCustomers(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customers": customers, "message": "success"})
}

func (h *Controller) GetCustomer(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	customer, err := h.svc.GetCustomer(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}
