// Package catalog inspects the server's view of the music library: it caches
// track listings in SQLite and reports directories whose contents the server
// has indexed under the wrong albums. Its report feeds the dance command's
// input format.
package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// TrackRow is one cached track, keyed by section and rating key. Directory is
// in the server's namespace.
type TrackRow struct {
	SectionKey string
	RatingKey  string
	AlbumKey   string
	Directory  string
	Artist     string
	Album      string
	Title      string
	CachedAt   time.Time
}

// Store persists track rows in the cache database.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Replace swaps a section's cached rows for the given set in one transaction.
func (s *Store) Replace(sectionKey string, rows []TrackRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracks WHERE section_key = ?`, sectionKey); err != nil {
		return fmt.Errorf("failed to clear section rows: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (section_key, rating_key, album_key, directory, artist, album, title, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range rows {
		cachedAt := row.CachedAt
		if cachedAt.IsZero() {
			cachedAt = now
		}
		if _, err := stmt.Exec(sectionKey, row.RatingKey, row.AlbumKey, row.Directory,
			row.Artist, row.Album, row.Title, cachedAt); err != nil {
			return fmt.Errorf("failed to insert track %s: %w", row.RatingKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// TracksBySection returns a section's cached rows ordered by directory.
func (s *Store) TracksBySection(sectionKey string) ([]TrackRow, error) {
	query := `
		SELECT section_key, rating_key, album_key, directory, artist, album, title, cached_at
		FROM tracks
		WHERE section_key = ?
		ORDER BY directory, rating_key
	`

	rows, err := s.db.Query(query, sectionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []TrackRow
	for rows.Next() {
		var t TrackRow
		if err := rows.Scan(&t.SectionKey, &t.RatingKey, &t.AlbumKey, &t.Directory,
			&t.Artist, &t.Album, &t.Title, &t.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// SectionKeys lists every section the cache holds rows for.
func (s *Store) SectionKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT section_key FROM tracks ORDER BY section_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan section key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return keys, nil
}

// SectionStatus summarizes one cached section for the cache status command.
type SectionStatus struct {
	SectionKey string    `json:"section_key"`
	Tracks     int       `json:"tracks"`
	CachedAt   time.Time `json:"cached_at"`
}

// Status reports row counts and the most recent cache time per section.
func (s *Store) Status() ([]SectionStatus, error) {
	query := `
		SELECT section_key, COUNT(*), MAX(cached_at)
		FROM tracks
		GROUP BY section_key
		ORDER BY section_key
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache status: %w", err)
	}
	defer rows.Close()

	var statuses []SectionStatus
	for rows.Next() {
		var st SectionStatus
		if err := rows.Scan(&st.SectionKey, &st.Tracks, &st.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return statuses, nil
}

// Clear drops every cached row and reports how many went away.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM tracks`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared rows: %w", err)
	}
	return n, nil
}
