// internal/database/schema.go
package database

import "libraryweb/internal/config"

// dialect carries the DDL that differs between drivers.
type dialect struct {
	tables []string
	// extra runs after the tables exist; failures are fatal.
	extra []string
	// bookColumns lists the column definitions added to a pre-existing books table.
	bookColumns map[string]string
	// columnsQuery lists the column names of the books table.
	columnsQuery string
}

var dialects = map[string]dialect{
	config.DriverPostgres: {
		tables: []string{
			`CREATE TABLE IF NOT EXISTS books (
				id SERIAL PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				year INT,
				isbn VARCHAR(20) UNIQUE,
				category VARCHAR(100),
				description TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS members (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				phone VARCHAR(20),
				address TEXT,
				join_date DATE NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS borrowings (
				id SERIAL PRIMARY KEY,
				book_id INT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				member_id INT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
				borrow_date DATE NOT NULL,
				due_date DATE NOT NULL,
				returned_date DATE NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		extra: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_borrowings_open_book ON borrowings (book_id) WHERE returned_date IS NULL`,
		},
		bookColumns: map[string]string{
			"category":    "VARCHAR(100)",
			"description": "TEXT",
			"created_at":  "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
			"updated_at":  "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
		},
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = 'books'`,
	},

	config.DriverMySQL: {
		tables: []string{
			`CREATE TABLE IF NOT EXISTS books (
				id INT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				year INT,
				isbn VARCHAR(20) UNIQUE,
				category VARCHAR(100),
				description TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS members (
				id INT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				phone VARCHAR(20),
				address TEXT,
				join_date DATE NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS borrowings (
				id INT AUTO_INCREMENT PRIMARY KEY,
				book_id INT NOT NULL,
				member_id INT NOT NULL,
				borrow_date DATE NOT NULL,
				due_date DATE NOT NULL,
				returned_date DATE NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE,
				FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
			)`,
		},
		// MySQL has no partial indexes. Borrows instead run at READ COMMITTED
		// (database.TxOptions) and lock the book row before any other read.
		bookColumns: map[string]string{
			"category":    "VARCHAR(100)",
			"description": "TEXT",
			"created_at":  "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
			"updated_at":  "TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
		},
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = 'books'`,
	},

	config.DriverSQLite: {
		tables: []string{
			`CREATE TABLE IF NOT EXISTS books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				year INTEGER,
				isbn TEXT UNIQUE,
				category TEXT,
				description TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS members (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL,
				phone TEXT,
				address TEXT,
				join_date DATE NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS borrowings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				member_id INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
				borrow_date DATE NOT NULL,
				due_date DATE NOT NULL,
				returned_date DATE NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		extra: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_borrowings_open_book ON borrowings (book_id) WHERE returned_date IS NULL`,
		},
		// SQLite refuses non-constant defaults in ALTER TABLE; Migrate backfills instead.
		bookColumns: map[string]string{
			"category":    "TEXT",
			"description": "TEXT",
			"created_at":  "TIMESTAMP",
			"updated_at":  "TIMESTAMP",
		},
		columnsQuery: `SELECT name FROM pragma_table_info('books')`,
	},
}
