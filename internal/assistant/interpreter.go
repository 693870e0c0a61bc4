// Package assistant turns a transcription into a model request, runs the
// tools the model asks for and collects a line per call.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"voxassist/internal/files"
	"voxassist/internal/nlu"
	"voxassist/internal/tasks"
	"voxassist/internal/tools"
)

// Interpreter executes the tool calls of a model reply against the file store
// and the task log. A failing call never stops the ones after it.
type Interpreter struct {
	registry *tools.Registry
	files    *files.Store
	tasks    tasks.Log
}

func NewInterpreter(registry *tools.Registry, store *files.Store, taskLog tasks.Log) *Interpreter {
	return &Interpreter{
		registry: registry,
		files:    store,
		tasks:    taskLog,
	}
}

func (in *Interpreter) Interpret(ctx context.Context, reply nlu.Reply) Reply {
	var out Reply

	if len(reply.ToolCalls) == 0 {
		text := NoResponse
		if reply.Content != nil && *reply.Content != "" {
			text = *reply.Content
		}
		out.Results = []Result{{Status: StatusAnswer, Message: text}}
	} else {
		out.Results = make([]Result, 0, len(reply.ToolCalls))
		for _, raw := range reply.ToolCalls {
			out.Results = append(out.Results, in.execute(ctx, raw))
		}
	}

	snapshot, err := in.tasks.List(ctx)
	if err != nil {
		log.Warn("Failed to list tasks", "err", err)
	}
	out.Tasks = snapshot
	return out
}

func (in *Interpreter) execute(ctx context.Context, raw tools.RawCall) Result {
	call, err := in.registry.Decode(raw)
	if err != nil {
		var unknown *tools.UnknownToolError
		if errors.As(err, &unknown) {
			log.Warn("Model requested unsupported tool", "tool", raw.Name)
			return Result{
				Status:  StatusUnsupported,
				Message: fmt.Sprintf("Unsupported tool `%s`.", raw.Name),
				Err:     err,
			}
		}
		log.Warn("Bad tool arguments", "tool", raw.Name, "err", err)
		return Result{Status: StatusFailed, Message: err.Error(), Err: err}
	}

	log.Debug("Executing tool", "tool", call.Tool())

	switch c := call.(type) {
	case tools.CreateFile:
		if err := in.files.Create(c.Filename, c.Content); err != nil {
			return fsFailure("create", c.Filename, err)
		}
		return Result{Status: StatusCreated, Message: fmt.Sprintf("File `%s` created.", c.Filename)}

	case tools.ReadFile:
		content, err := in.files.Read(c.Filename)
		if errors.Is(err, files.ErrNotFound) {
			return Result{
				Status:  StatusRead,
				Message: fmt.Sprintf("Read `%s`:\n%s", c.Filename, NotFound),
				Err:     err,
			}
		}
		if err != nil {
			return fsFailure("read", c.Filename, err)
		}
		return Result{Status: StatusRead, Message: fmt.Sprintf("Read `%s`:\n%s", c.Filename, content)}

	case tools.DeleteFile:
		err := in.files.Delete(c.Filename)
		if errors.Is(err, files.ErrNotFound) {
			return Result{
				Status:  StatusDeleted,
				Message: fmt.Sprintf("Delete `%s`: %s", c.Filename, NotFound),
				Err:     err,
			}
		}
		if err != nil {
			return fsFailure("delete", c.Filename, err)
		}
		return Result{Status: StatusDeleted, Message: fmt.Sprintf("File `%s` deleted.", c.Filename)}

	case tools.EditFile:
		if err := in.files.Create(c.Filename, c.Content); err != nil {
			return fsFailure("edit", c.Filename, err)
		}
		return Result{Status: StatusEdited, Message: fmt.Sprintf("File `%s` edited.", c.Filename)}

	case tools.AddTask:
		task, err := in.tasks.Add(ctx, c.Description)
		if err != nil {
			log.Warn("Failed to add task", "err", err)
			return Result{Status: StatusFailed, Message: fmt.Sprintf("Failed to add task: %v", err), Err: err}
		}
		return Result{Status: StatusTaskAdded, Message: "Task added: " + task.Description}
	}

	err = fmt.Errorf("no handler for tool %q", call.Tool())
	log.Error("Unhandled tool", "tool", call.Tool())
	return Result{Status: StatusFailed, Message: err.Error(), Err: err}
}

func fsFailure(op, name string, err error) Result {
	log.Warn("File operation failed", "op", op, "file", name, "err", err)
	return Result{
		Status:  StatusFailed,
		Message: fmt.Sprintf("Failed to %s `%s`: %v", op, name, err),
		Err:     err,
	}
}
