package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"smtrace/internal/sourcemap"
)

// SQLiteStore is the Store implementation backing `smtrace index`.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite index database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT UNIQUE,
			source_count INTEGER,
			name_count INTEGER,
			mapping_count INTEGER,
			indexed_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS mappings (
			artifact_id INTEGER,
			position INTEGER,
			generated_line INTEGER,
			generated_column INTEGER,
			source_file TEXT,
			original_line INTEGER,
			original_column INTEGER,
			name TEXT,
			has_original INTEGER,
			has_name INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_artifact ON mappings(artifact_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_line ON mappings(artifact_id, generated_line);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, path string, sm *sourcemap.SourceMap, mappings []sourcemap.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Reindexing replaces the previous table for this path wholesale.
	var oldID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT id FROM artifacts WHERE path = ?`, path).Scan(&oldID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if oldID.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mappings WHERE artifact_id = ?`, oldID.Int64); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, oldID.Int64); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO artifacts (path, source_count, name_count, mapping_count, indexed_at)
		VALUES (?, ?, ?, ?, ?)
	`, path, len(sm.Sources), len(sm.Names), len(mappings), time.Now().UTC())
	if err != nil {
		return err
	}
	artifactID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mappings (artifact_id, position, generated_line, generated_column, source_file, original_line, original_column, name, has_original, has_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range mappings {
		if _, err := stmt.Exec(artifactID, i, m.GeneratedLine, m.GeneratedColumn, m.SourceFile, m.OriginalLine, m.OriginalColumn, m.Name, m.HasOriginal, m.HasName); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadMappings(ctx context.Context, path string) ([]sourcemap.Mapping, error) {
	var artifactID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM artifacts WHERE path = ?`, path).Scan(&artifactID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact not indexed: %s", path)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT generated_line, generated_column, source_file, original_line, original_column, name, has_original, has_name
		FROM mappings WHERE artifact_id = ? ORDER BY position
	`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []sourcemap.Mapping
	for rows.Next() {
		var m sourcemap.Mapping
		if err := rows.Scan(&m.GeneratedLine, &m.GeneratedColumn, &m.SourceFile, &m.OriginalLine, &m.OriginalColumn, &m.Name, &m.HasOriginal, &m.HasName); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

func (s *SQLiteStore) Artifacts(ctx context.Context) ([]ArtifactInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, source_count, name_count, mapping_count, indexed_at
		FROM artifacts ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var infos []ArtifactInfo
	for rows.Next() {
		var info ArtifactInfo
		if err := rows.Scan(&info.Path, &info.Sources, &info.Names, &info.Mappings, &info.IndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}
