// Package controllers adapts HTTP requests to the lifecycle services. Handlers only bind,
// validate and pick the tenant; every rule lives in services.
package controllers

import (
	"strconv"

	"werkstatt-backend/middlewares"
	"werkstatt-backend/services"
	"werkstatt-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	svc *services.Service
}

func New(svc *services.Service) *Controller {
	return &Controller{svc: svc}
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

type technicianBody struct {
	TechnicianID uint `json:"technician_id" validate:"required"`
}

// idParam parses a positive numeric route parameter; anything else is reported as not found.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, name+" not found")
	}
	return uint(v), nil
}

func listOptions(c *fiber.Ctx) services.ListOptions {
	return services.ListOptions{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Limit:  utils.ParseIntDefault(c.Query("limit"), 0),
		Offset: utils.ParseIntDefault(c.Query("offset"), 0),
	}
}

func tenant(c *fiber.Ctx) string {
	return middlewares.TenantID(c)
}
