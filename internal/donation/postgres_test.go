package donation_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/donation"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

type mockDBPool struct {
	mu      sync.Mutex
	execErr error
	args    [][]any
	closed  bool
}

func (m *mockDBPool) Exec(_ context.Context, _ string, arguments ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	m.args = append(m.args, arguments)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockDBPool) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

var validPostgres = donation.PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "ddp"}

func TestNewPostgresSink(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config  donation.PostgresConfig
		poolErr error

		wantDSN string
		wantErr bool
	}{
		"Valid config": {
			config:  validPostgres,
			wantDSN: "postgres://postgres:@localhost:5432/ddp?sslmode=disable",
		},
		"Password and ssl mode are used": {
			config:  donation.PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p@ss", DBName: "ddp", SSLMode: "require"},
			wantDSN: "postgres://u:p%40ss@db:5433/ddp?sslmode=require",
		},

		"Error on bad port":      {config: donation.PostgresConfig{Host: "localhost", Port: -1, User: "u", DBName: "ddp"}, wantErr: true},
		"Error on bad ssl mode":  {config: donation.PostgresConfig{Host: "localhost", Port: 5432, User: "u", DBName: "ddp", SSLMode: "maybe"}, wantErr: true},
		"Error on missing host":  {config: donation.PostgresConfig{Port: 5432, User: "u", DBName: "ddp"}, wantErr: true},
		"Error on pool creation": {config: validPostgres, poolErr: errors.New("requested failure"), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var gotDSN string
			newPool := func(_ context.Context, dsn string) (donation.DBPool, error) {
				gotDSN = dsn
				if tc.poolErr != nil {
					return nil, tc.poolErr
				}
				return &mockDBPool{}, nil
			}

			s, err := donation.NewPostgresSink(context.Background(), tc.config, donation.WithNewPool(newPool))
			if tc.wantErr {
				require.Error(t, err, "NewPostgresSink should fail")
				return
			}
			require.NoError(t, err, "NewPostgresSink should not fail")
			defer s.Close()
			assert.Equal(t, tc.wantDSN, gotDSN, "NewPostgresSink should connect to the configured database")
		})
	}
}

func TestPostgresSinkDonate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		execErr    error
		earlyClose bool

		wantErr bool
	}{
		"Successful insert": {},

		"Error on exec":                   {execErr: fmt.Errorf("error requested by test"), wantErr: true},
		"Error on canceled insert":        {execErr: context.Canceled, wantErr: true},
		"Errors if pool is nil or closed": {earlyClose: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pool := &mockDBPool{execErr: tc.execErr}
			s, err := donation.NewPostgresSink(context.Background(), validPostgres,
				donation.WithNewPool(func(context.Context, string) (donation.DBPool, error) { return pool, nil }))
			require.NoError(t, err, "Setup: NewPostgresSink should not fail")
			defer s.Close()

			if tc.earlyClose {
				require.NoError(t, s.Close(), "Setup: failed to close database connection")
				require.NoError(t, s.Close(), "Closing twice should be a no-op")
				assert.True(t, pool.closed, "Close should close the pool")
			}

			err = s.Donate(context.Background(), "s1", []byte(`{"status":"DONATED"}`))
			if tc.wantErr {
				require.Error(t, err, "Donate should fail")
				return
			}
			require.NoError(t, err, "Donate should not fail")
			require.Len(t, pool.args, 1, "Donate should insert one row")
			assert.Equal(t, "s1", pool.args[0][1], "Donation key should be inserted")
			assert.Equal(t, `{"status":"DONATED"}`, pool.args[0][2], "Payload should be inserted")
		})
	}
}

func TestPostgresIntegration(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	if os.Getenv("DDP_INSIGHTS_SKIP_CONTAINERS") != "" {
		t.Skip("Skipping PostgreSQL integration test as requested")
	}

	pc := testutils.StartPostgresContainer(t)
	t.Cleanup(func() { _ = pc.Stop(context.Background()) })
	require.NoError(t, pc.IsReady(t, 5*time.Second, 10), "Setup: database should become ready")

	port, err := strconv.Atoi(pc.Port)
	require.NoError(t, err, "Setup: container port should be a number")
	cfg := donation.PostgresConfig{Host: pc.Host, Port: port, User: pc.User, Password: pc.Password, DBName: pc.Name, SSLMode: "disable"}

	require.NoError(t, donation.Migrate(slog.Default(), cfg), "Migrate should apply the schema")
	require.NoError(t, donation.Migrate(slog.Default(), cfg), "Migrate should be a no-op once applied")

	s, err := donation.NewPostgresSink(t.Context(), cfg)
	require.NoError(t, err, "NewPostgresSink should connect to the container")
	defer s.Close()

	require.NoError(t, s.Donate(t.Context(), "s1", []byte(`[{"t":{"c":{"0":"v"}}}]`)), "Donate should insert the tables")
	require.NoError(t, s.Donate(t.Context(), "s1-DONATED", []byte(`{"status":"DONATED"}`)), "Donate should insert the status")

	conn, err := pgx.Connect(t.Context(), pc.DSN)
	require.NoError(t, err, "Setup: could not connect to the database")
	defer conn.Close(context.Background())

	var status string
	err = conn.QueryRow(t.Context(), `SELECT payload->>'status' FROM donations WHERE donation_key = $1`, "s1-DONATED").Scan(&status)
	require.NoError(t, err, "Donated status should be stored")
	assert.Equal(t, "DONATED", status, "Payload should be stored as JSON")

	var count int
	require.NoError(t, conn.QueryRow(t.Context(), `SELECT count(*) FROM donations`).Scan(&count), "Donations should be counted")
	assert.Equal(t, 2, count, "Every donation should be stored")
}
