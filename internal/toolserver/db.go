package toolserver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	_ "modernc.org/sqlite"
)

const defaultQueryLimit = 50

// dbTool serves read-only queries. SQLite databases get a sample
// dataset seeded on startup; postgres connections are used as-is.
type dbTool struct {
	db     *sql.DB
	driver string
}

func newDBTool(driver, dsn string) (*dbTool, error) {
	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		if dsn == "" {
			dsn = "file:stride-sample?mode=memory&cache=shared"
		}
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite" {
		// A shared in-memory database lives as long as one connection
		// stays open.
		db.SetMaxOpenConns(1)
		if err := seedSampleData(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &dbTool{db: db, driver: driver}, nil
}

func seedSampleData(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			first_name TEXT,
			last_name TEXT,
			age INTEGER,
			active BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			parent_id INTEGER REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			price REAL NOT NULL,
			category TEXT NOT NULL,
			in_stock BOOLEAN DEFAULT TRUE,
			quantity INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			product_id INTEGER REFERENCES products(id),
			quantity INTEGER NOT NULL,
			unit_price REAL,
			total_price REAL,
			status TEXT DEFAULT 'pending'
		)`,
		`INSERT OR IGNORE INTO users (id, username, email, first_name, last_name, age, active) VALUES
			(1, 'alice_j', 'alice@example.com', 'Alice', 'Johnson', 28, TRUE),
			(2, 'bob_smith', 'bob@example.com', 'Bob', 'Smith', 34, TRUE),
			(3, 'charlie_b', 'charlie@example.com', 'Charlie', 'Brown', 22, TRUE),
			(4, 'diana_w', 'diana@example.com', 'Diana', 'Wilson', 45, FALSE),
			(5, 'eve_davis', 'eve@example.com', 'Eve', 'Davis', 31, TRUE)`,
		`INSERT OR IGNORE INTO categories (id, name, description, parent_id) VALUES
			(1, 'Electronics', 'Electronic devices and accessories', NULL),
			(2, 'Computers', 'Desktop and laptop computers', 1),
			(3, 'Mobile', 'Mobile phones and tablets', 1),
			(4, 'Furniture', 'Home and office furniture', NULL),
			(5, 'Books', 'Physical and digital books', NULL)`,
		`INSERT OR IGNORE INTO products (id, name, description, price, category, in_stock, quantity) VALUES
			(1, 'Gaming Laptop', 'High-performance gaming laptop', 1299.99, 'Computers', TRUE, 15),
			(2, 'Wireless Mouse', 'Ergonomic wireless mouse', 29.99, 'Computers', TRUE, 50),
			(3, 'Mechanical Keyboard', 'RGB mechanical keyboard', 129.99, 'Computers', TRUE, 25),
			(4, 'Smartphone', 'Latest model smartphone', 799.99, 'Mobile', TRUE, 30),
			(5, 'Tablet', '10-inch tablet with stylus', 399.99, 'Mobile', FALSE, 0),
			(6, 'Office Chair', 'Ergonomic office chair', 249.99, 'Furniture', TRUE, 12)`,
		`INSERT OR IGNORE INTO orders (id, user_id, product_id, quantity, unit_price, total_price, status) VALUES
			(1, 1, 1, 1, 1299.99, 1299.99, 'delivered'),
			(2, 2, 2, 2, 29.99, 59.98, 'shipped'),
			(3, 3, 4, 1, 799.99, 799.99, 'pending'),
			(4, 1, 3, 1, 129.99, 129.99, 'delivered'),
			(5, 5, 6, 1, 249.99, 249.99, 'cancelled')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}
	return nil
}

// validateQuery enforces the read-only contract: a single statement
// that starts with SELECT.
func validateQuery(query string) error {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if trimmed == "" {
		return fmt.Errorf("query is empty")
	}
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	return nil
}

func (d *dbTool) query(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() && len(results) < limit {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (d *dbTool) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *dbTool) Close() error {
	return d.db.Close()
}

func (s *Server) handleDatabase(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}
	limit := request.GetInt("limit", defaultQueryLimit)

	results, err := s.db.query(ctx, query, limit)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if results == nil {
		results = []map[string]any{}
	}
	return jsonResult(map[string]any{
		"results": results,
		"count":   len(results),
	})
}
