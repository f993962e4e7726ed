package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per training pipeline run, whatever its outcome
		`CREATE TABLE IF NOT EXISTS training_runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			status TEXT NOT NULL CHECK(status IN ('running', 'succeeded', 'failed', 'canceled')),
			error TEXT NOT NULL DEFAULT '',
			accuracy REAL NOT NULL DEFAULT 0,
			total_samples INTEGER NOT NULL DEFAULT 0,
			labels TEXT NOT NULL DEFAULT '[]',
			artifact_path TEXT NOT NULL DEFAULT '',
			model_kind TEXT NOT NULL DEFAULT ''
		)`,

		// Labels emitted by the stabilizer of a detection session
		`CREATE TABLE IF NOT EXISTS announcements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_training_runs_started_at ON training_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_session_id ON announcements(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
