package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS location_history (
	id          BIGSERIAL PRIMARY KEY,
	group_name  TEXT,
	rdt         TIMESTAMP,
	land_mark   VARCHAR(1000),
	speed       DOUBLE PRECISION,
	direction   DOUBLE PRECISION,
	distance    DOUBLE PRECISION,
	travel_time TEXT,
	stop_time   TEXT,
	lat         DOUBLE PRECISION,
	lng         DOUBLE PRECISION,
	file_name   TEXT,
	page        INTEGER,
	row_no      INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS idx_location_history_group_rdt ON location_history (group_name, rdt)`,
}

var locationColumns = []string{
	"group_name", "rdt", "land_mark", "speed", "direction", "distance",
	"travel_time", "stop_time", "lat", "lng", "file_name", "page", "row_no",
}

// PostgresStore writes chunks with COPY, one transaction per chunk.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool from cfg.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*PostgresStore, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "fleet-telemetry"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	logger.Info("successfully connected to database")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the table and its vehicle/time index if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaPostgres {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			s.logger.Error("failed to create schema", "error", err)
			return fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertMany(ctx context.Context, records []entity.LocationHistory) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStoreWrite, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"location_history"}, locationColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				r.GroupName, r.RDT, r.LandMark, r.Speed, r.Direction, r.Distance,
				r.TravelTime, r.StopTime, r.Lat, r.Lng, r.FileName, r.Page, r.Row,
			}, nil
		}))
	if err != nil {
		s.logger.Error("copy into location_history failed", "records", len(records), "error", err)
		return fmt.Errorf("%w: copy: %v", common.ErrStoreWrite, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStoreWrite, err)
	}
	s.logger.Debug("inserted location history", "rows", n)
	return nil
}

func (s *PostgresStore) QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT group_name, rdt, land_mark, speed, direction, distance,
		       travel_time, stop_time, lat, lng, file_name, page, row_no
		FROM location_history
		WHERE group_name = $1 AND rdt BETWEEN $2 AND $3
		ORDER BY id`, vehicleID, start, end)
	if err != nil {
		s.logger.Error("failed to query location history", "vehicle_id", vehicleID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.LocationHistory
	for rows.Next() {
		var r entity.LocationHistory
		var group, landMark, travel, stop, file *string
		if err := rows.Scan(&group, &r.RDT, &landMark, &r.Speed, &r.Direction, &r.Distance,
			&travel, &stop, &r.Lat, &r.Lng, &file, &r.Page, &r.Row); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", common.ErrDatabase, err)
		}
		r.GroupName = deref(group)
		r.LandMark = deref(landMark)
		r.TravelTime = deref(travel)
		r.StopTime = deref(stop)
		r.FileName = deref(file)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool gracefully.
func (s *PostgresStore) Close() {
	s.logger.Info("closing database connections")
	s.pool.Close()
	s.logger.Info("database connections closed")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
