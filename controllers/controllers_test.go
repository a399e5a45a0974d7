package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"werkstatt-backend/controllers"
	"werkstatt-backend/database"
	"werkstatt-backend/middlewares"
	"werkstatt-backend/models"
	"werkstatt-backend/routes"
	"werkstatt-backend/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type api struct {
	app    *fiber.App
	db     *gorm.DB
	auth   *middlewares.Auth
	tenant string
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	auth, err := middlewares.NewAuth("test-secret")
	require.NoError(t, err)

	svc := services.New(db, services.Options{Logger: log, PhoneRegion: "US"})
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.NewErrorHandler(log)})
	routes.Register(app, routes.Deps{DB: db, Auth: auth, Logger: log, Controller: controllers.New(svc)})

	a := &api{app: app, db: db, auth: auth, tenant: uuid.NewString()}
	a.token = a.tokenFor(t, a.tenant)
	return a
}

func (a *api) tokenFor(t *testing.T, tenant string) string {
	t.Helper()
	token, err := a.auth.GenerateJWT(uuid.NewString(), tenant, time.Hour)
	require.NoError(t, err)
	return token
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

type reply struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]any
}

func (a *api) do(t *testing.T, c call) reply {
	t.Helper()
	var rd io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, rd)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	token := c.token
	if token == "" {
		token = a.token
	}
	if token != "-" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := reply{status: resp.StatusCode, header: resp.Header, raw: raw}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (r reply) id(t *testing.T) uint {
	t.Helper()
	v, ok := r.body["id"].(float64)
	require.Truef(t, ok, "no id in %s", r.raw)
	return uint(v)
}

func (r reply) decimal(t *testing.T, field string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(fmt.Sprint(r.body[field]))
}

func (a *api) technician(t *testing.T) uint {
	t.Helper()
	tech := models.Technician{TenantID: a.tenant, Name: "Grace", Active: true}
	require.NoError(t, a.db.Create(&tech).Error)
	return tech.ID
}

func (a *api) issuedInvoice(t *testing.T) uint {
	t.Helper()
	r := a.do(t, call{method: "POST", path: "/api/invoices", body: fiber.Map{
		"source_type": "DIRECT",
		"customer":    fiber.Map{"name": "Walk-in", "contact": "+1 650-253-0001"},
		"items": []fiber.Map{
			{"product": "Battery", "quantity": 2, "unit_price": "100.00"},
			{"product": "Labour", "quantity": 1, "unit_price": "50.00"},
		},
	}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	id := r.id(t)

	r = a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/invoices/%d/status", id), body: fiber.Map{"status": "ISSUED"}})
	require.Equal(t, fiber.StatusOK, r.status, string(r.raw))
	return id
}

func TestHealthIsPublic(t *testing.T) {
	a := newAPI(t)
	r := a.do(t, call{method: "GET", path: "/api/health", token: "-"})
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.Equal(t, "ok", r.body["status"])
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	a := newAPI(t)

	r := a.do(t, call{method: "GET", path: "/api/invoices", token: "-"})
	assert.Equal(t, fiber.StatusUnauthorized, r.status)
	assert.Equal(t, "UNAUTHORIZED", r.body["code"])

	other, err := middlewares.NewAuth("another-secret")
	require.NoError(t, err)
	forged, err := other.GenerateJWT("u", a.tenant, time.Hour)
	require.NoError(t, err)
	r = a.do(t, call{method: "GET", path: "/api/invoices", token: forged})
	assert.Equal(t, fiber.StatusUnauthorized, r.status)
}

func TestPaymentsOverHTTP(t *testing.T) {
	a := newAPI(t)
	id := a.issuedInvoice(t)
	payments := fmt.Sprintf("/api/invoices/%d/payments", id)

	r := a.do(t, call{method: "POST", path: payments, body: fiber.Map{"amount": "100.00", "method": "Cash"}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	invoice := r.body["invoice"].(map[string]any)
	assert.Equal(t, "PARTIALLY_PAID", invoice["status"])
	assert.True(t, decimal.RequireFromString(fmt.Sprint(invoice["amount_due"])).Equal(decimal.NewFromInt(150)))

	r = a.do(t, call{method: "POST", path: payments, body: fiber.Map{"amount": "200.00", "method": "card"}})
	require.Equal(t, fiber.StatusUnprocessableEntity, r.status)
	assert.Equal(t, middlewares.CodeOverPayment, r.body["code"])
	assert.Equal(t, "150.00", r.body["amount_due"])

	r = a.do(t, call{method: "POST", path: payments, body: fiber.Map{"amount": 150, "method": "card"}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	assert.Equal(t, "PAID", r.body["invoice"].(map[string]any)["status"])

	r = a.do(t, call{method: "GET", path: payments})
	require.Equal(t, fiber.StatusOK, r.status)
	list := r.body["payments"].([]any)
	require.Len(t, list, 2)

	paymentID := uint(list[0].(map[string]any)["id"].(float64))
	r = a.do(t, call{method: "DELETE", path: fmt.Sprintf("/api/payments/%d", paymentID)})
	require.Equal(t, fiber.StatusOK, r.status, string(r.raw))
	assert.Equal(t, "PARTIALLY_PAID", r.body["status"])
}

func TestErrorTaxonomyMapping(t *testing.T) {
	a := newAPI(t)

	r := a.do(t, call{method: "POST", path: "/api/invoices", body: fiber.Map{
		"source_type": "DIRECT",
		"customer":    fiber.Map{"contact": "+1 650-253-0002"},
		"items":       []fiber.Map{{"product": "Screen", "quantity": 1, "unit_price": "80"}},
	}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	id := r.id(t)

	t.Run("invalid transition", func(t *testing.T) {
		r := a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/invoices/%d/status", id), body: fiber.Map{"status": "PAID"}})
		require.Equal(t, fiber.StatusConflict, r.status)
		assert.Equal(t, middlewares.CodeInvalidTransition, r.body["code"])
		assert.Equal(t, "DRAFT", r.body["current_status"])
		assert.Equal(t, "PAID", r.body["attempted_status"])
	})

	t.Run("precondition failed", func(t *testing.T) {
		r := a.do(t, call{method: "POST", path: fmt.Sprintf("/api/invoices/%d/payments", id), body: fiber.Map{"amount": "10", "method": "cash"}})
		require.Equal(t, fiber.StatusConflict, r.status)
		assert.Equal(t, middlewares.CodePreconditionFailed, r.body["code"])
	})

	t.Run("unknown status is a validation failure", func(t *testing.T) {
		r := a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/invoices/%d/status", id), body: fiber.Map{"status": "LOST"}})
		require.Equal(t, fiber.StatusUnprocessableEntity, r.status)
		assert.Equal(t, middlewares.CodeValidation, r.body["code"])
	})

	t.Run("missing fields", func(t *testing.T) {
		r := a.do(t, call{method: "POST", path: "/api/inquiries", body: fiber.Map{"customer": fiber.Map{"contact": "+1 650-253-0003"}}})
		require.Equal(t, fiber.StatusUnprocessableEntity, r.status)
		assert.Equal(t, middlewares.CodeValidation, r.body["code"])
		assert.NotEmpty(t, r.body["errors"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/inquiries", bytes.NewBufferString("{"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+a.token)
		resp, err := a.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("other tenant sees not found", func(t *testing.T) {
		r := a.do(t, call{method: "GET", path: fmt.Sprintf("/api/invoices/%d", id), token: a.tokenFor(t, uuid.NewString())})
		require.Equal(t, fiber.StatusNotFound, r.status)
		assert.Equal(t, middlewares.CodeNotFound, r.body["code"])
	})

	t.Run("non numeric id", func(t *testing.T) {
		r := a.do(t, call{method: "GET", path: "/api/invoices/abc"})
		assert.Equal(t, fiber.StatusNotFound, r.status)
	})
}

func TestAcceptedRepairQuotationOpensRepairOverHTTP(t *testing.T) {
	a := newAPI(t)
	tech := a.technician(t)

	r := a.do(t, call{method: "POST", path: "/api/inquiries", body: fiber.Map{
		"customer": fiber.Map{"name": "Ada", "contact": "+1 650-253-0000"},
		"items":    []fiber.Map{{"product_name": "Laptop", "problem_description": "no power"}},
	}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	inquiryID := r.id(t)
	assert.Equal(t, "Pending", r.body["status"])

	r = a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/inquiries/%d/assign", inquiryID), body: fiber.Map{"technician_id": tech}})
	require.Equal(t, fiber.StatusOK, r.status, string(r.raw))
	assert.Equal(t, "Technician Assigned", r.body["status"])

	r = a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/inquiries/%d/done", inquiryID)})
	require.Equal(t, fiber.StatusOK, r.status, string(r.raw))

	r = a.do(t, call{method: "POST", path: "/api/quotations", body: fiber.Map{
		"inquiry_id": inquiryID,
		"items":      []fiber.Map{{"product": "Motherboard", "quantity": 1, "unit_price": "180.00", "warranty": "6 months"}},
	}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))
	quotationID := r.id(t)
	assert.Equal(t, "Repair", r.body["type"])
	assert.True(t, r.decimal(t, "total_amount").Equal(decimal.NewFromInt(180)))

	for _, st := range []string{"Sent", "Accepted"} {
		r = a.do(t, call{method: "PUT", path: fmt.Sprintf("/api/quotations/%d/status", quotationID), body: fiber.Map{"status": st}})
		require.Equal(t, fiber.StatusOK, r.status, string(r.raw))
	}

	r = a.do(t, call{method: "GET", path: "/api/repairs"})
	require.Equal(t, fiber.StatusOK, r.status)
	repairs := r.body["repairs"].([]any)
	require.Len(t, repairs, 1)
	assert.Equal(t, "Pending", repairs[0].(map[string]any)["status"])

	r = a.do(t, call{method: "GET", path: fmt.Sprintf("/api/quotations/%d/repair", quotationID)})
	require.Equal(t, fiber.StatusOK, r.status, string(r.raw))
	assert.Equal(t, repairs[0].(map[string]any)["id"], r.body["id"])

	r = a.do(t, call{method: "DELETE", path: fmt.Sprintf("/api/quotations/%d", quotationID)})
	assert.Equal(t, fiber.StatusConflict, r.status)
}

func TestNormalQuotationHasNoRepair(t *testing.T) {
	a := newAPI(t)
	r := a.do(t, call{method: "POST", path: "/api/quotations", body: fiber.Map{
		"customer": fiber.Map{"contact": "+1 650-253-0004"},
		"items":    []fiber.Map{{"product": "Cable", "quantity": 1, "unit_price": "5"}},
	}})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.raw))

	r = a.do(t, call{method: "GET", path: fmt.Sprintf("/api/quotations/%d/repair", r.id(t))})
	assert.Equal(t, fiber.StatusNotFound, r.status)
	assert.Equal(t, middlewares.CodeNotFound, r.body["code"])
}

func TestIdempotencyKeyReplaysResponse(t *testing.T) {
	a := newAPI(t)
	body := fiber.Map{
		"customer": fiber.Map{"contact": "+1 650-253-0000"},
		"items":    []fiber.Map{{"product_name": "Phone"}},
	}
	key := map[string]string{"Idempotency-Key": "create-inquiry-1"}

	first := a.do(t, call{method: "POST", path: "/api/inquiries", body: body, headers: key})
	require.Equal(t, fiber.StatusCreated, first.status, string(first.raw))

	second := a.do(t, call{method: "POST", path: "/api/inquiries", body: body, headers: key})
	require.Equal(t, fiber.StatusCreated, second.status)
	assert.Equal(t, "true", second.header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first.raw), string(second.raw))

	var count int64
	require.NoError(t, a.db.Model(&models.Inquiry{}).Where("tenant_id = ?", a.tenant).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	body["notes"] = "changed"
	r := a.do(t, call{method: "POST", path: "/api/inquiries", body: body, headers: key})
	assert.Equal(t, fiber.StatusConflict, r.status)
}

func TestFailedRequestReleasesIdempotencyKey(t *testing.T) {
	a := newAPI(t)
	key := map[string]string{"Idempotency-Key": "retry-me"}
	body := fiber.Map{"customer": fiber.Map{"contact": "+1 650-253-0000"}, "items": []fiber.Map{{"product_name": "Tablet"}}}

	// technician 999 does not exist
	r := a.do(t, call{method: "PUT", path: "/api/inquiries/1/assign", body: fiber.Map{"technician_id": 999}, headers: key})
	require.Equal(t, fiber.StatusNotFound, r.status)

	var count int64
	require.NoError(t, a.db.Model(&models.IdempotencyKey{}).Where("tenant_id = ?", a.tenant).Count(&count).Error)
	assert.Zero(t, count)

	r = a.do(t, call{method: "POST", path: "/api/inquiries", body: body, headers: key})
	assert.Equal(t, fiber.StatusCreated, r.status)
}
