package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// LocationStore is the canonical store of location samples.
type LocationStore interface {
	// InsertMany persists every record or none of them.
	InsertMany(ctx context.Context, records []entity.LocationHistory) error
	// QueryByVehicleAndTimeRange returns samples of one vehicle with RDT in
	// [start, end], in insertion order.
	QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error)
	Ping(ctx context.Context) error
	Close()
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Open connects the store selected by cfg.Driver and makes sure its schema exists.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (LocationStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}

// HealthCheck pings the store, bounded by timeout when positive.
func HealthCheck(ctx context.Context, store LocationStore, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := store.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	logger.Debug("database ping successful")
	return nil
}
