package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// erDupEntry is the MySQL server error for a duplicate key.
const erDupEntry = 1062

var mysqlDialect = sqlDialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
			description TEXT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE KEY items_name_key (name),
			KEY items_created_at_idx (created_at, id)
		) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_bin`,
		// names compare byte for byte, as on the other backends; also fixes older tables
		`ALTER TABLE items MODIFY name VARCHAR(255) COLLATE utf8mb4_bin NOT NULL`,
	},
	isUniqueViolation: isMySQLUniqueViolation,
}

// OpenMySQL connects to MySQL using a go-sql-driver DSN.
func OpenMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return newSQLStore(ctx, db, &mysqlDialect)
}

func isMySQLUniqueViolation(err error) bool {
	var e *mysql.MySQLError

	return errors.As(err, &e) && e.Number == erDupEntry
}
