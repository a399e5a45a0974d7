package middlewares

import (
	"werkstatt-backend/config"
	"werkstatt-backend/database"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TenantTx opens a per-request DB transaction and hands it to services through the
// request's user context. Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency()
// (so idempotency records aren't tied to the handler TX).
func TenantTx(db *gorm.DB, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		if TenantID(c) == "" {
			return c.Next()
		}

		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				config.LogError(log, "middlewares", "TenantTx", "commit", c.Path(), e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		c.SetUserContext(database.WithTx(c.UserContext(), tx))
		return c.Next()
	}
}
