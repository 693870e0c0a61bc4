package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);`

// SQLiteLog keeps tasks in a SQLite database file so they outlive the process.
type SQLiteLog struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the task database at path.
func OpenSQLite(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open task db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init task db: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func (l *SQLiteLog) Add(ctx context.Context, description string) (Task, error) {
	task, err := newTask(description)
	if err != nil {
		return Task{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO tasks (id, description, created_at) VALUES (?, ?, ?)`,
		task.ID, task.Description, task.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (l *SQLiteLog) List(ctx context.Context) ([]Task, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, description, created_at FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var (
			t  Task
			ns int64
		)
		if err := rows.Scan(&t.ID, &t.Description, &ns); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.CreatedAt = time.Unix(0, ns).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
