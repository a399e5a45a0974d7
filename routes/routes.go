package routes

import (
	"werkstatt-backend/controllers"
	"werkstatt-backend/middlewares"

	"github.com/bsm/redislock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Deps struct {
	DB         *gorm.DB
	Auth       *middlewares.Auth
	Locker     *redislock.Client // optional
	Logger     logrus.FieldLogger
	Controller *controllers.Controller
}

// Register wires all HTTP routes.
func Register(app *fiber.App, d Deps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(d.Auth.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency(d.DB, d.Locker, d.Logger))

	// Then per-request transaction (commits/rolls back)
	protected.Use(middlewares.TenantTx(d.DB, d.Logger))

	h := d.Controller

	// Master data (read-only)
	protected.Get("/customers", h.GetCustomers)
	protected.Get("/customers/:id", h.GetCustomer)
	protected.Get("/suppliers", h.GetSuppliers)
	protected.Get("/technicians", h.GetTechnicians)

	// Inquiries
	protected.Post("/inquiries", h.CreateInquiry)
	protected.Get("/inquiries", h.GetInquiries)
	protected.Get("/inquiries/:id", h.GetInquiry)
	protected.Put("/inquiries/:id/assign", h.AssignTechnician)
	protected.Put("/inquiries/:id/technician", h.UpdateTechnician)
	protected.Put("/inquiries/:id/done", h.MarkInquiryDone)
	protected.Put("/inquiries/:id/cancel", h.CancelInquiry)
	protected.Delete("/inquiries/:id", h.DeleteInquiry)

	// Quotations
	protected.Post("/quotations", h.CreateQuotation)
	protected.Get("/quotations", h.GetQuotations)
	protected.Get("/quotations/:id", h.GetQuotation)
	protected.Put("/quotations/:id", h.UpdateQuotation)
	protected.Put("/quotations/:id/status", h.ChangeQuotationStatus)
	protected.Delete("/quotations/:id", h.DeleteQuotation)
	protected.Post("/quotations/:id/items", h.AddQuotationItem)
	protected.Put("/quotations/:id/items/:itemId", h.UpdateQuotationItem)
	protected.Delete("/quotations/:id/items/:itemId", h.DeleteQuotationItem)

	// Repairs are opened by accepting a repair quotation
	protected.Get("/repairs", h.GetRepairs)
	protected.Get("/repairs/:id", h.GetRepair)
	protected.Put("/repairs/:id/status", h.ChangeRepairStatus)
	protected.Get("/quotations/:id/repair", h.GetQuotationRepair)

	// Invoices with payments
	protected.Post("/invoices", h.CreateInvoice)
	protected.Get("/invoices", h.GetInvoices)
	protected.Get("/invoices/:id", h.GetInvoice)
	protected.Put("/invoices/:id", h.UpdateInvoice)
	protected.Put("/invoices/:id/status", h.ChangeInvoiceStatus)
	protected.Put("/invoices/:id/recalculate", h.RecalculateInvoice)
	protected.Post("/invoices/:id/items", h.AddInvoiceItem)
	protected.Put("/invoices/:id/items/:itemId", h.UpdateInvoiceItem)
	protected.Delete("/invoices/:id/items/:itemId", h.DeleteInvoiceItem)
	protected.Post("/invoices/:id/payments", h.CreatePayment)
	protected.Get("/invoices/:id/payments", h.ListPayments)
	protected.Delete("/payments/:id", h.DeletePayment)
}
