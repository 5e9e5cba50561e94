package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: users and sessions
	{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX idx_sessions_expires ON sessions(expires_at)`,
	},

	// Migration 2: customers
	{
		`CREATE TABLE customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			industry TEXT NOT NULL DEFAULT '',
			health_score INTEGER NOT NULL DEFAULT 0,
			arr REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			owner_id INTEGER,
			renewal_date TEXT,
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			archived_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX idx_customers_archived ON customers(archived)`,
		`CREATE INDEX idx_customers_industry ON customers(industry, archived)`,
		`CREATE INDEX idx_customers_health ON customers(health_score)`,
		`CREATE INDEX idx_customers_renewal ON customers(renewal_date)`,
	},

	// Migration 3: segments
	{
		`CREATE TABLE segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			filter_json TEXT NOT NULL DEFAULT '{}',
			sort_json TEXT NOT NULL DEFAULT '{}',
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},

	// Migration 4: export and import jobs
	{
		`CREATE TABLE exports (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL DEFAULT 'PENDING',
			format TEXT NOT NULL,
			columns_json TEXT NOT NULL DEFAULT '[]',
			request_json TEXT NOT NULL DEFAULT '{}',
			record_count INTEGER NOT NULL DEFAULT 0,
			result_data BLOB,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'STARTED',
			total_rows INTEGER NOT NULL DEFAULT 0,
			imported_rows INTEGER NOT NULL DEFAULT 0,
			errors_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},

	// Migration 5: request log for the admin debugging API
	{
		`CREATE TABLE request_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			request_body TEXT,
			response_body TEXT,
			duration_ms INTEGER,
			correlation_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_request_log_time ON request_log(created_at)`,
	},
}
