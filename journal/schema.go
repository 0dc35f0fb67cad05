package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	scenario TEXT NOT NULL,
	portfolios TEXT NOT NULL,
	trials INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	year_length REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS run_values (
	run_id TEXT NOT NULL,
	portfolio TEXT NOT NULL,
	trial INTEGER NOT NULL,
	step INTEGER NOT NULL,
	t REAL NOT NULL,
	instrument TEXT NOT NULL,
	value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_values_run ON run_values(run_id, portfolio, trial, step);
`
