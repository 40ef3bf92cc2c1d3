// Engage Core
// Copyright (c) 2026 The Kimya Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Engage Core.
//
// Engage Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Engage Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Engage Core.  If not, see <http://www.gnu.org/licenses/>.

// Package metricsdb is the sqlite-backed analytics store: it records focus
// session snapshots and lesson attendance, and computes the aggregate
// metrics snapshot consumed by the status engine.
package metricsdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KimyaProject/engage-core/pkg/config"
	"github.com/KimyaProject/engage-core/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var ErrNullSQL = errors.New("MetricsDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// MetricsDB wraps the sqlite analytics database.
type MetricsDB struct {
	sql *sql.DB
	// meaningfulSeconds is the minimum accumulated active time for a focus
	// session to count as genuine engagement.
	meaningfulSeconds int
}

// Open opens (or creates and migrates) the metrics database under dataDir.
func Open(dataDir string, meaningfulSeconds int) (*MetricsDB, error) {
	dbPath := filepath.Join(dataDir, config.MetricsDbFile)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &MetricsDB{sql: sqlInstance, meaningfulSeconds: meaningfulSeconds}
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(sqlInstance *sql.DB, meaningfulSeconds int) *MetricsDB {
	return &MetricsDB{sql: sqlInstance, meaningfulSeconds: meaningfulSeconds}
}

// MigrateUp applies pending schema migrations.
func (db *MetricsDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if err := database.MigrateUp(db.sql, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run metrics database migrations: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (db *MetricsDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
