package donation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ubuntu/decorate"
)

// MySQLConfig holds the configuration for connecting to the MySQL database.
type MySQLConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required|min:1|max:65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" validate:"required"`
}

// DSN returns the driver data source name of cfg.
func (cfg MySQLConfig) DSN() string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.DBName
	c.ParseTime = true
	return c.FormatDSN()
}

type sqlDB interface {
	PingContext(ctx context.Context) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

func openMySQL(dsn string) (sqlDB, error) {
	return sql.Open("mysql", dsn)
}

const mysqlSchema = `CREATE TABLE IF NOT EXISTS donations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	entry_time DATETIME(6) NOT NULL,
	donation_key VARCHAR(255) NOT NULL,
	payload LONGTEXT NOT NULL,
	INDEX donations_donation_key_idx (donation_key)
)`

// MySQLSink inserts each donation as a row of the donations table, created on connection.
type MySQLSink struct {
	db sqlDB

	log *slog.Logger
}

// NewMySQLSink connects to the database described by cfg and creates the donations table if needed.
func NewMySQLSink(ctx context.Context, cfg MySQLConfig, args ...Options) (s *MySQLSink, err error) {
	if err := check(KindMySQL, &cfg); err != nil {
		return nil, err
	}
	opts := newOptions(args)

	db, err := opts.newSQLDB(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %v", err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if _, err := db.ExecContext(ctx, mysqlSchema); err != nil {
		return nil, fmt.Errorf("unable to create donations table: %v", err)
	}

	opts.log.Info("Connected to MySQL database", "host", cfg.Host, "port", cfg.Port)
	return &MySQLSink{db: db, log: opts.log}, nil
}

// Donate inserts data under key.
func (s *MySQLSink) Donate(ctx context.Context, key string, data []byte) (err error) {
	defer decorate.OnError(&err, "could not store donation %q", key)

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO donations (entry_time, donation_key, payload) VALUES (?, ?, ?)",
		time.Now().UTC(), key, string(data),
	); err != nil {
		return fmt.Errorf("failed to insert donation: %v", err)
	}
	s.log.Debug("Donation stored", "key", key)
	return nil
}

// Close closes the database connection.
func (s *MySQLSink) Close() error {
	return s.db.Close()
}
