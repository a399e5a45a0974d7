package controllers

import (
	"werkstatt-backend/middlewares"
	"werkstatt-backend/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) GetRepairs(c *fiber.Ctx) error {
	repairs, err := h.svc.ListRepairs(c.UserContext(), tenant(c), listOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"repairs": repairs, "message": "success"})
}

func (h *Controller) GetRepair(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	repair, err := h.svc.GetRepair(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(repair)
}

func (h *Controller) ChangeRepairStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var body statusBody
	if err := middlewares.BindAndValidate(c, &body); err != nil {
		return err
	}
	repair, err := h.svc.ChangeRepairStatus(c.UserContext(), tenant(c), id, models.RepairStatus(body.Status))
	if err != nil {
		return err
	}
	return c.JSON(repair)
}

// GET /api/quotations/:id/repair
func (h *Controller) GetQuotationRepair(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	repair, err := h.svc.RepairForQuotation(c.UserContext(), tenant(c), id)
	if err != nil {
		return err
	}
	return c.JSON(repair)
}
