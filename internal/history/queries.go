package history

const schema = `
CREATE TABLE IF NOT EXISTS job_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL DEFAULT '',
	package_id TEXT NOT NULL DEFAULT '',
	inmate_id TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_job_history_outcome ON job_history(outcome);
CREATE INDEX IF NOT EXISTS idx_job_history_created_at ON job_history(created_at);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	insertEntry = `
		INSERT INTO job_history (job_id, package_id, inmate_id, outcome, attempts, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectEntries = `
		SELECT id, job_id, package_id, inmate_id, outcome, attempts, error_message, created_at
		FROM job_history
	`

	countByOutcome = `
		SELECT COUNT(*) FROM job_history WHERE outcome = ?
	`

	countByOutcomeToday = `
		SELECT COUNT(*) FROM job_history
		WHERE outcome = ? AND created_at >= date('now', 'localtime')
	`

	selectSetting = `SELECT value FROM settings WHERE key = ?`

	upsertSetting = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
)
