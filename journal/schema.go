package journal

const Schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS margin_snapshots (
	time DATETIME NOT NULL,
	total_market_value REAL NOT NULL,
	total_equity REAL NOT NULL,
	margin_loan REAL NOT NULL,
	maintenance_req REAL NOT NULL,
	margin_usage_rate REAL NOT NULL,
	health_level TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_margin_snapshots_time ON margin_snapshots(time);
`
