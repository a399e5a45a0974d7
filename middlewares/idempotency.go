package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"werkstatt-backend/config"
	"werkstatt-backend/models"

	"github.com/bsm/redislock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	idempotencyHeader = "Idempotency-Key"
	// a pending key younger than this is treated as a request still in flight
	idempotencyInFlight = 30 * time.Second
)

// Idempotency processes Idempotency-Key for mutating HTTP methods, per tenant.
// When locker is non-nil, a redis lock keeps concurrent duplicates out across instances;
// without it the pending row plays that role within idempotencyInFlight.
func Idempotency(db *gorm.DB, locker *redislock.Client, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		tenantID, userID := TenantID(c), UserID(c)
		if tenantID == "" || userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}

		byKey := map[string]any{"tenant_id": tenantID, "key": key}
		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), tenantID, userID)

		if locker != nil {
			lock, err := locker.Obtain(c.UserContext(), "idempotency:"+tenantID+":"+key, idempotencyInFlight, nil)
			if errors.Is(err, redislock.ErrNotObtained) {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
			}
			if err != nil {
				// redis is an optimisation; fall back to the database record
				config.LogError(log, "middlewares", "Idempotency", "obtain lock", key, err)
			} else {
				defer func() { _ = lock.Release(c.UserContext()) }()
			}
		}

		// ---- Phase 1: read/create "pending" under a short TX
		var existing models.IdempotencyKey
		replay := false
		err := db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where(byKey).First(&existing).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				rec := models.IdempotencyKey{
					TenantID:    tenantID,
					Key:         key,
					RequestHash: reqHash,
					Method:      method,
					Path:        path,
					UserID:      userID,
				}
				if e2 := tx.Create(&rec).Error; e2 != nil {
					// unique race: read the winner
					if e3 := tx.Where(byKey).First(&existing).Error; e3 != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
					}
				} else {
					return nil
				}
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
				replay = true
				return nil
			}
			if locker == nil && time.Since(existing.CreatedAt) < idempotencyInFlight {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
			}
			return tx.Model(&existing).Update("created_at", time.Now()).Error
		})
		if err != nil {
			return err
		}
		if replay {
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		if err := c.Next(); err != nil {
			// failed requests may be retried with the same key
			_ = db.Where(byKey).Where("response_status = 0").
				Delete(&models.IdempotencyKey{}).Error
			return err
		}

		// ---- Phase 2: store the response; best-effort, never break a successful response
		now := time.Now().UTC()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		if e := db.Model(&models.IdempotencyKey{}).
			Where(byKey).
			Updates(map[string]any{
				"response_status": c.Response().StatusCode(),
				"response_body":   blob,
				"completed_at":    &now,
			}).Error; e != nil {
			config.LogError(log, "middlewares", "Idempotency", "store response", key, e)
		}
		return nil
	}
}

// requestHash is sha256 of method|path|body|tenant|user.
func requestHash(method, path string, body []byte, tenantID, userID string) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body, []byte(tenantID), []byte(userID)} {
		h.Write(part)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
