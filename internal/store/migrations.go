package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - named sets of pipeline tuning parameters
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			tolerance INTEGER NOT NULL CHECK(tolerance >= 0 AND tolerance <= 65535),
			binary_threshold INTEGER NOT NULL CHECK(binary_threshold >= 0 AND binary_threshold <= 255),
			min_defect_depth INTEGER NOT NULL CHECK(min_defect_depth >= 0),
			display_scale REAL NOT NULL CHECK(display_scale > 0),
			blur_size INTEGER NOT NULL CHECK(blur_size >= 1),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Sessions table - one row per tracking session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			profile_id TEXT REFERENCES profiles(id) ON DELETE SET NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			end_reason TEXT NOT NULL DEFAULT '',
			start_x REAL NOT NULL,
			start_y REAL NOT NULL,
			start_z REAL NOT NULL,
			refocus_count INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_profile_id ON sessions(profile_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
