package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/parites/ratesd"
)

const (
	defaultPort = 3306

	connectTimeout = 10 * time.Second
	readTimeout    = 25 * time.Second
	writeTimeout   = 25 * time.Second
)

const (
	currenciesDDL = `
	CREATE TABLE IF NOT EXISTS currencies (
	  code  CHAR(1)      NOT NULL,
	  iso   CHAR(3)      NOT NULL,
	  label VARCHAR(128) NOT NULL,
	  PRIMARY KEY (code),
	  UNIQUE KEY uq_currencies_iso (iso)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	dailyRatesDDL = `
	CREATE TABLE IF NOT EXISTS daily_rates (
	  code         CHAR(1)       NOT NULL,
	  day          DATE          NOT NULL,
	  rate         DECIMAL(18,8) NOT NULL,
	  inverse_rate DECIMAL(18,8) NOT NULL,
	  PRIMARY KEY (code, day),
	  CONSTRAINT fk_daily_rates_currency
	    FOREIGN KEY (code) REFERENCES currencies (code)
	      ON UPDATE RESTRICT ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	upsertRateSQL = `
	INSERT INTO daily_rates (code, day, rate, inverse_rate)
	VALUES (?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	  rate = VALUES(rate),
	  inverse_rate = VALUES(inverse_rate);`
)

type (
	// ConnConfig is the caller supplied MySQL connection configuration.
	ConnConfig struct {
		Host     string `json:"host"`
		User     string `json:"user"`
		Password string `json:"password"`
		Database string `json:"database"`
		Port     int    `json:"port"`
	}

	// Store runs the schema and rate persistence operations on one MySQL
	// database. It owns the underlying connection pool.
	Store struct {
		db *sql.DB
	}
)

func (c ConnConfig) validate() error {
	if strings.TrimSpace(c.Host) == "" || strings.TrimSpace(c.User) == "" || strings.TrimSpace(c.Database) == "" {
		return ratesd.ErrConnConfig
	}

	return nil
}

// DSN builds the driver connection string. Timeouts are bounded so a stuck
// database surfaces as a storage error instead of hanging the request.
func (c ConnConfig) DSN() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = strings.TrimSpace(c.User)
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", strings.TrimSpace(c.Host), port)
	cfg.DBName = strings.TrimSpace(c.Database)
	cfg.Collation = "utf8mb4_general_ci"
	cfg.Timeout = connectTimeout
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout

	return cfg.FormatDSN()
}

// Connect validates config, dials the database and pings it. The returned
// Store must be closed by the caller on every exit path.
func Connect(ctx context.Context, config ConnConfig) (*Store, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratesd.ErrStorage, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connection failed: %v", ratesd.ErrStorage, err)
	}

	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the currencies and daily_rates tables when absent.
// Safe to call before every import, a no-op on an initialized database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{currenciesDDL, dailyRatesDDL} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: schema creation failed: %v", ratesd.ErrStorage, err)
		}
	}

	return nil
}

// SaveRates provisions the currency row for entry when absent and upserts all
// rows in a single transaction. Re-imports of the same (code, day) overwrite
// rate and inverse_rate in place. Returns the number of upserted rows.
func (s *Store) SaveRates(ctx context.Context, entry ratesd.CurrencyEntry, rows []ratesd.RateDay) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ratesd.ErrStorage, err)
	}

	if err := ensureCurrency(ctx, tx, entry); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := upsertRates(ctx, tx, rows); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: commit failed: %v", ratesd.ErrStorage, err)
	}

	return len(rows), nil
}

// ensureCurrency inserts the registry row for entry if absent. The label and
// code of an existing row are never overwritten.
func ensureCurrency(ctx context.Context, tx *sql.Tx, entry ratesd.CurrencyEntry) error {
	_, err := tx.ExecContext(
		ctx,
		"INSERT IGNORE INTO currencies (code, iso, label) VALUES (?, ?, ?);",
		entry.Code, entry.ISO, entry.Label,
	)
	if err != nil {
		return fmt.Errorf("%w: provisioning %s failed: %v", ratesd.ErrStorage, entry.ISO, err)
	}

	var code string

	row := tx.QueryRowContext(ctx, "SELECT code FROM currencies WHERE code = ? LIMIT 1;", entry.Code)
	if err := row.Scan(&code); err != nil {
		return fmt.Errorf("%w: currency row %q not found after insert: %v", ratesd.ErrStorage, entry.Code, err)
	}

	return nil
}

func upsertRates(ctx context.Context, tx *sql.Tx, rows []ratesd.RateDay) error {
	stmt, err := tx.PrepareContext(ctx, upsertRateSQL)
	if err != nil {
		return fmt.Errorf("%w: %v", ratesd.ErrStorage, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx, r.Code, r.Day, r.Rate.StringFixed(8), r.Inverse.StringFixed(8))
		if err != nil {
			return fmt.Errorf("%w: upsert for %s failed: %v", ratesd.ErrStorage, r.Day, err)
		}
	}

	return nil
}
