package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/Railwatch/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the connection string for the given parameters.
// The same string is reused by the LISTEN/NOTIFY subscriber.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createSchema creates the transactions table and the insert trigger that
// feeds the realtime channel. Only rows with fraud_flag = true are pushed.
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			anomaly_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_status TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			anomaly_label_id TEXT,
			num_tickets INTEGER NOT NULL DEFAULT 0,
			total_amount BIGINT NOT NULL DEFAULT 0,
			fraud_flag BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE OR REPLACE FUNCTION notify_flagged_transaction() RETURNS trigger AS $$
		BEGIN
			IF NEW.fraud_flag THEN
				PERFORM pg_notify('flagged_transactions', row_to_json(NEW)::text);
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		DROP TRIGGER IF EXISTS transactions_notify ON transactions;
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TRIGGER transactions_notify
		AFTER INSERT ON transactions
		FOR EACH ROW EXECUTE FUNCTION notify_flagged_transaction()
	`)

	return err
}

// FlaggedTransactions returns every transaction with fraud_flag = true,
// newest first. This is the bulk load behind the anomaly feed.
func (db *DB) FlaggedTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, anomaly_score, review_status, created_at,
			anomaly_label_id, num_tickets, total_amount, fraud_flag
		FROM transactions
		WHERE fraud_flag = TRUE
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying flagged transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var reviewStatus sql.NullString
		var labelID sql.NullString
		var createdAt time.Time

		if err := rows.Scan(
			&tx.ID, &tx.AnomalyScore, &reviewStatus, &createdAt,
			&labelID, &tx.NumTickets, &tx.TotalAmount, &tx.FraudFlag,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}

		if reviewStatus.Valid {
			tx.ReviewStatus = reviewStatus.String
		}
		if labelID.Valid {
			tx.AnomalyLabelID = labelID.String
		}
		tx.CreatedAt = createdAt.Format(time.RFC3339Nano)

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// InsertTransaction writes a transaction row. The insert trigger takes care
// of pushing flagged rows onto the realtime channel.
func (db *DB) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	createdAt := time.Now()
	if tx.CreatedAt != "" {
		if t, err := models.ParseCreatedAt(tx.CreatedAt); err == nil {
			createdAt = t
		}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, anomaly_score, review_status, created_at,
			anomaly_label_id, num_tickets, total_amount, fraud_flag
		) VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8)
	`,
		tx.ID, tx.AnomalyScore, tx.ReviewStatus, createdAt,
		tx.AnomalyLabelID, tx.NumTickets, tx.TotalAmount, tx.FraudFlag)

	return err
}

// UpdateReviewStatus moves a transaction to a new review state.
// The feed reflects the change on the next bulk reload.
func (db *DB) UpdateReviewStatus(ctx context.Context, id string, status models.Status) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid review status: %s", status)
	}

	_, err := db.ExecContext(ctx, `
		UPDATE transactions
		SET review_status = $1
		WHERE id = $2
	`, status, id)

	return err
}
