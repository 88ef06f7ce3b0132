// Package pgtest starts a throwaway postgres with the service schema for
// integration suites.
package pgtest

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/migrations"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is a migrated postgres container and a gorm handle on it.
type Database struct {
	Container *postgres.PostgresContainer
	DB        *gorm.DB
}

// Start runs postgres:15-alpine and applies the embedded migrations.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	d := &Database{Container: container}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return d, err
	}

	d.DB, err = gorm.Open(postgresdriver.Open(connStr), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return d, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return d, err
	}
	migrator, err := migrations.New(sqlDB, zap.NewNop())
	if err != nil {
		return d, err
	}
	return d, migrator.Up(ctx)
}

// Truncate empties every table.
func (d *Database) Truncate() error {
	return d.DB.Exec(
		"TRUNCATE TABLE notification_requests, reviews, capacity_reservations, order_history, orders, providers",
	).Error
}

// Terminate closes the connection pool and stops the container.
func (d *Database) Terminate(ctx context.Context) error {
	if d == nil || d.Container == nil {
		return nil
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return d.Container.Terminate(ctx)
}

// Provider builds an active provider in FR/Bretagne.
func Provider(t *testing.T, capacity int, capabilities ...string) *provider.Provider {
	t.Helper()
	loc, err := kernel.NewLocation("FR", "Bretagne", "Rennes")
	require.NoError(t, err)
	caps, err := provider.NewCapabilitySet(capabilities...)
	require.NoError(t, err)
	p, err := provider.NewProvider(kernel.NewUUID(), kernel.NewUUID(), "Atelier Ouest", loc, caps, capacity)
	require.NoError(t, err)
	return p
}

// Order builds a pending order and its creation record.
func Order(t *testing.T, capability string, createdAt time.Time) (*order.Order, order.HistoryRecord) {
	t.Helper()
	loc, err := kernel.NewLocation("FR", "Bretagne", "Brest")
	require.NoError(t, err)
	contact, err := order.NewContact("client@example.com", "+33612345678", true)
	require.NoError(t, err)
	custom, err := order.NewCustomization(order.CustomizationFields{Size: "L", Color: "navy", Text: "Ahoy"})
	require.NoError(t, err)

	o, record, err := order.NewOrder(kernel.NewUUID(), order.Draft{
		ClientID:      kernel.NewUUID(),
		DesignID:      kernel.NewUUID(),
		DesignTitle:   "Lighthouse",
		SupportID:     kernel.NewUUID(),
		Capability:    provider.Capability(capability),
		ShipTo:        loc,
		Quantity:      3,
		UnitPrice:     1500,
		Customization: custom,
		Contact:       contact,
	}, createdAt)
	require.NoError(t, err)
	return o, record
}
