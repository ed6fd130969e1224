package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// Diagnostic summaries are bounded so a runaway out-of-band writer cannot
// inflate the per-turn context.
const maxSummaryLength = 2000

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"5s"`
}

type vehicleProfileRow struct {
	bun.BaseModel `bun:"table:vehicle_profiles,alias:vp"`

	UserID            string    `bun:"user_id,pk"`
	Make              string    `bun:"make"`
	Model             string    `bun:"model"`
	Year              int       `bun:"year"`
	DiagnosticSummary string    `bun:"diagnostic_summary"`
	UpdatedAt         time.Time `bun:"updated_at"`
}

// PostgresProfileStore reads vehicle profiles written by the out-of-band
// ingestion pipeline. Read-only from the agent's perspective.
type PostgresProfileStore struct {
	db      *bun.DB
	timeout time.Duration
}

func NewPostgresProfileStore(cfg PostgresConfig) (*PostgresProfileStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresProfileStore{db: db, timeout: timeout}, nil
}

func (s *PostgresProfileStore) GetVehicleProfile(ctx context.Context, userID string) (*contractx.VehicleProfile, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: user id is empty", contractx.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row vehicleProfileRow
	err := s.db.NewSelect().
		Model(&row).
		Where("vp.user_id = ?", trimmed).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractx.ErrProfileNotFound
		}
		return nil, fmt.Errorf("query vehicle profile: %w", err)
	}

	summary := strings.TrimSpace(row.DiagnosticSummary)
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}

	return &contractx.VehicleProfile{
		UserID:            row.UserID,
		Make:              row.Make,
		Model:             row.Model,
		Year:              row.Year,
		DiagnosticSummary: summary,
	}, nil
}

func (s *PostgresProfileStore) Close() error {
	return s.db.Close()
}
