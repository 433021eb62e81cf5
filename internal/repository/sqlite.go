package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS location_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	group_name  TEXT,
	rdt         TEXT,
	land_mark   TEXT,
	speed       REAL,
	direction   REAL,
	distance    REAL,
	travel_time TEXT,
	stop_time   TEXT,
	lat         REAL,
	lng         REAL,
	file_name   TEXT,
	page        INTEGER,
	row_no      INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS idx_location_history_group_rdt ON location_history (group_name, rdt)`,
}

// sqliteTimeLayout sorts lexically in time order.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore is the embedded canonical store used by --inmem runs and tests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens dsn (a file path or ":memory:") and creates the schema.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	logger.Info("opening database", "driver", DriverSQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	// One connection: a second one would see a different :memory: database,
	// and sqlite serializes writers anyway.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaSQLite {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			logger.Error("failed to create schema", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) InsertMany(ctx context.Context, records []entity.LocationHistory) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStoreWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO location_history (group_name, rdt, land_mark, speed, direction, distance,
			travel_time, stop_time, lat, lng, file_name, page, row_no)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", common.ErrStoreWrite, err)
	}
	defer stmt.Close()

	for _, r := range records {
		var rdt any
		if r.RDT != nil {
			rdt = r.RDT.UTC().Format(sqliteTimeLayout)
		}
		if _, err := stmt.ExecContext(ctx, r.GroupName, rdt, r.LandMark, r.Speed, r.Direction, r.Distance,
			r.TravelTime, r.StopTime, r.Lat, r.Lng, r.FileName, r.Page, r.Row); err != nil {
			s.logger.Error("insert into location_history failed", "file_name", r.FileName, "error", err)
			return fmt.Errorf("%w: insert: %v", common.ErrStoreWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStoreWrite, err)
	}
	return nil
}

func (s *SQLiteStore) QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, rdt, land_mark, speed, direction, distance,
		       travel_time, stop_time, lat, lng, file_name, page, row_no
		FROM location_history
		WHERE group_name = ? AND rdt BETWEEN ? AND ?
		ORDER BY id`,
		vehicleID, start.UTC().Format(sqliteTimeLayout), end.UTC().Format(sqliteTimeLayout))
	if err != nil {
		s.logger.Error("failed to query location history", "vehicle_id", vehicleID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.LocationHistory
	for rows.Next() {
		var (
			group, rdt, landMark, travel, stop, file sql.NullString
			speed, direction, distance, lat, lng     sql.NullFloat64
			page, row                                sql.NullInt64
		)
		if err := rows.Scan(&group, &rdt, &landMark, &speed, &direction, &distance,
			&travel, &stop, &lat, &lng, &file, &page, &row); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", common.ErrDatabase, err)
		}
		r := entity.LocationHistory{
			GroupName:  group.String,
			LandMark:   landMark.String,
			Speed:      nullFloat(speed),
			Direction:  nullFloat(direction),
			Distance:   nullFloat(distance),
			TravelTime: travel.String,
			StopTime:   stop.String,
			Lat:        nullFloat(lat),
			Lng:        nullFloat(lng),
			FileName:   file.String,
			Page:       nullInt(page),
			Row:        nullInt(row),
		}
		if rdt.Valid {
			if t, err := time.ParseInLocation(sqliteTimeLayout, rdt.String, time.UTC); err == nil {
				r.RDT = &t
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
