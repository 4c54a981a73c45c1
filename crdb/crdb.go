package crdb

import (
	"context"
	"time"

	"github.com/danthegoodman1/icedb/gologger"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	PGPool                 *pgxpool.Pool
	StandardContextTimeout = 10 * time.Second

	logger = gologger.NewLogger()
)

// ConnectToDB opens the shared pool against dsn and sets PGPool.
func ConnectToDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	logger.Debug().Msg("connecting to CRDB...")
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.HealthCheckPeriod = time.Second * 5
	config.MaxConnLifetime = time.Minute * 30
	config.MaxConnIdleTime = time.Minute * 30

	PGPool, err = pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	logger.Debug().Msg("connected to CRDB")
	return PGPool, nil
}
