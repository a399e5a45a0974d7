package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GET /api/suppliers
func (h *Controller) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.svc.ListSuppliers(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"suppliers": suppliers, "message": "success"})
}

// GET /api/technicians?active=true
func (h *Controller) GetTechnicians(c *fiber.Ctx) error {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	technicians, err := h.svc.ListTechnicians(c.UserContext(), tenant(c), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"technicians": technicians, "message": "success"})
}
