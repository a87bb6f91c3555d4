package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		store_id VARCHAR(32) PRIMARY KEY,
		store_name VARCHAR(255) NOT NULL,
		city VARCHAR(128) NOT NULL,
		state VARCHAR(32) NOT NULL,
		region VARCHAR(64) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS products (
		sku VARCHAR(64) PRIMARY KEY,
		style_id VARCHAR(64) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		category VARCHAR(128) NOT NULL,
		subcategory VARCHAR(128) NOT NULL,
		color VARCHAR(64) NOT NULL,
		size VARCHAR(32) NOT NULL,
		season VARCHAR(64) NOT NULL,
		unit_price DOUBLE NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS inventory (
		store_id VARCHAR(32) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		on_hand INT NOT NULL CHECK (on_hand >= 0),
		reserved INT NOT NULL CHECK (reserved >= 0),
		reorder_point INT NOT NULL,
		last_updated VARCHAR(40) NOT NULL,
		PRIMARY KEY (store_id, sku),
		FOREIGN KEY (store_id) REFERENCES stores(store_id),
		FOREIGN KEY (sku) REFERENCES products(sku)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS tickets (
		ticket_id VARCHAR(32) PRIMARY KEY,
		opened_date VARCHAR(40) NOT NULL,
		store_id VARCHAR(32) NOT NULL,
		category VARCHAR(128) NOT NULL,
		summary VARCHAR(255) NOT NULL,
		severity VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		channel VARCHAR(32) NOT NULL,
		description TEXT NOT NULL,
		FOREIGN KEY (store_id) REFERENCES stores(store_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS transfers (
		transfer_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		from_store VARCHAR(32) NOT NULL,
		to_store VARCHAR(32) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		qty INT NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		created_by_role VARCHAR(32) NOT NULL,
		FOREIGN KEY (from_store) REFERENCES stores(store_id),
		FOREIGN KEY (to_store) REFERENCES stores(store_id),
		FOREIGN KEY (sku) REFERENCES products(sku)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS inbound_transfers (
		inbound_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		transfer_id BIGINT NOT NULL,
		store_id VARCHAR(32) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		qty INT NOT NULL,
		expected_date VARCHAR(40) NOT NULL,
		status VARCHAR(32) NOT NULL,
		FOREIGN KEY (transfer_id) REFERENCES transfers(transfer_id),
		FOREIGN KEY (store_id) REFERENCES stores(store_id),
		FOREIGN KEY (sku) REFERENCES products(sku)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		action VARCHAR(32) NOT NULL,
		role VARCHAR(32) NOT NULL,
		payload_json TEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS confirm_tokens (
		token VARCHAR(64) PRIMARY KEY,
		action VARCHAR(32) NOT NULL,
		payload_json TEXT NOT NULL,
		expires_at VARCHAR(40) NOT NULL,
		used TINYINT NOT NULL DEFAULT 0
	) ENGINE=InnoDB`,
}

var mysqlDialect = dialect{
	name:       "mysql",
	schema:     mysqlSchema,
	lockSuffix: " FOR UPDATE",
	isDuplicate: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
	},
}

// OpenMySQL connects to MySQL, sizes the pool and creates missing tables.
func OpenMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return nil, errors.New("mysql dsn must name a database")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := newSQLStore(db, mysqlDialect)
	if err := s.applySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
