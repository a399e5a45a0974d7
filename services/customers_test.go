package services

import (
	"testing"

	"werkstatt-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomersAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	inq := f.inquiry(t)

	g := *f
	g.tenant = uuid.NewString()
	other := g.inquiry(t)
	assert.NotEqual(t, inq.CustomerID, other.CustomerID, "same contact, different tenant")

	list, err := f.svc.ListCustomers(f.ctx, f.tenant, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "+16502530000", list[0].Contact)

	_, err = f.svc.GetCustomer(f.ctx, f.tenant, other.CustomerID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetCustomer(f.ctx, g.tenant, other.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
}

func TestServiceRejectsMissingTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListCustomers(f.ctx, "", ListOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTechniciansHidesInactiveOnRequest(t *testing.T) {
	f := newFixture(t)
	f.technician(t, "Grace")
	retired := models.Technician{TenantID: f.tenant, Name: "Linus", Active: true}
	require.NoError(t, f.db.Create(&retired).Error)
	require.NoError(t, f.db.Model(&retired).Update("active", false).Error)
	require.NoError(t, f.db.Create(&models.Technician{TenantID: "other", Name: "Ken", Active: true}).Error)

	all, err := f.svc.ListTechnicians(f.ctx, f.tenant, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.svc.ListTechnicians(f.ctx, f.tenant, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Grace", active[0].Name)
}

func TestListSuppliersIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Supplier{TenantID: f.tenant, CompanyName: "Parts Co"}).Error)
	require.NoError(t, f.db.Create(&models.Supplier{TenantID: "other", CompanyName: "Elsewhere"}).Error)

	suppliers, err := f.svc.ListSuppliers(f.ctx, f.tenant, ListOptions{})
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Parts Co", suppliers[0].CompanyName)
}
