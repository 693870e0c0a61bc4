// Package tasks records the task descriptions the assistant is asked to add.
package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyDescription = errors.New("empty task description")

type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Log is an append-only record of tasks. List returns tasks in the order
// they were added.
type Log interface {
	Add(ctx context.Context, description string) (Task, error)
	List(ctx context.Context) ([]Task, error)
}

func newTask(description string) (Task, error) {
	if strings.TrimSpace(description) == "" {
		return Task{}, ErrEmptyDescription
	}
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MemoryLog keeps tasks for the lifetime of the process.
type MemoryLog struct {
	mu    sync.Mutex
	tasks []Task
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Add(_ context.Context, description string) (Task, error) {
	task, err := newTask(description)
	if err != nil {
		return Task{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, task)
	return task, nil
}

func (l *MemoryLog) List(_ context.Context) ([]Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Task(nil), l.tasks...), nil
}
