// Package services is the lifecycle coordinator: it runs every inquiry, quotation, repair,
// invoice and payment operation inside one database transaction per call, locking the rows
// it reads-validates-writes.
package services

import (
	"context"
	"errors"
	"time"

	"werkstatt-backend/database"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("werkstatt-backend/services")

type Options struct {
	Logger logrus.FieldLogger
	// PhoneRegion is the ISO region used to normalise customer contacts, e.g. "US".
	PhoneRegion string
	Clock       func() time.Time
}

type Service struct {
	db     *gorm.DB
	log    logrus.FieldLogger
	region string
	now    func() time.Time
}

func New(db *gorm.DB, opts Options) *Service {
	s := &Service{db: db, log: opts.Logger, region: opts.PhoneRegion, now: opts.Clock}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.region == "" {
		s.region = "US"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// inTx runs fn in a transaction; nested in the request transaction it becomes a savepoint.
func (s *Service) inTx(ctx context.Context, op, tenantID string, fn func(tx *gorm.DB) error) error {
	ctx, span := tracer.Start(ctx, "services."+op)
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if tenantID == "" {
		return notFound("tenant")
	}

	err := database.Conn(ctx, s.db).Transaction(fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func ofTenant(tenantID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockRow loads dst by id within the tenant and holds an exclusive row lock until commit.
func lockRow(tx *gorm.DB, tenantID string, dst any, id uint, entity string) error {
	return findRow(forUpdate(tx), tenantID, dst, id, entity)
}

func findRow(tx *gorm.DB, tenantID string, dst any, id uint, entity string) error {
	err := tx.Scopes(ofTenant(tenantID)).First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return err
}

// ListOptions narrows list reads; zero Limit means the default page size.
type ListOptions struct {
	Status string
	Source string
	Limit  int
	Offset int
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (o ListOptions) page(db *gorm.DB) *gorm.DB {
	limit := o.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if o.Status != "" {
		db = db.Where("status = ?", o.Status)
	}
	return db.Order("id DESC").Limit(limit).Offset(max(o.Offset, 0))
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
