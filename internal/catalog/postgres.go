// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

const selectDevices = `
	SELECT code, device_type, module_code, port_type, param_string, options
	FROM devices
	WHERE enabled`

// Querier is the subset of *sql.DB the provider needs
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresProvider reads enabled devices from the devices table
type PostgresProvider struct {
	db     Querier
	logger *zap.Logger
}

// NewPostgresProvider creates a provider over db
func NewPostgresProvider(db Querier, logger *zap.Logger) *PostgresProvider {
	return &PostgresProvider{
		db:     db,
		logger: logger.With(zap.String("component", "catalog"), zap.String("source", "postgres")),
	}
}

// Get implements Provider
func (p *PostgresProvider) Get(ctx context.Context, code string) (model.Descriptor, error) {
	row := p.db.QueryRowContext(ctx, selectDevices+" AND code = $1", code)

	d, err := scanDescriptor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Descriptor{}, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, code)
	}
	if err != nil {
		p.logger.Error("Failed to read device", zap.String("device_code", code), zap.Error(err))
		return model.Descriptor{}, fmt.Errorf("failed to read device %s: %w", code, err)
	}
	return d, nil
}

// List implements Provider
func (p *PostgresProvider) List(ctx context.Context) ([]model.Descriptor, error) {
	rows, err := p.db.QueryContext(ctx, selectDevices+" ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Descriptor
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	p.logger.Debug("Devices listed", zap.Int("count", len(devices)))
	return devices, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDescriptor(s scanner) (model.Descriptor, error) {
	var d model.Descriptor
	err := s.Scan(&d.Code, &d.DeviceType, &d.ModuleCode, &d.PortType, &d.ParamString, &d.Options)
	return d, err
}
