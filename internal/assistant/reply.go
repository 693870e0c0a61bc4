package assistant

import (
	"strings"

	"voxassist/internal/tasks"
)

// Status is the glyph that prefixes a result line.
type Status string

const (
	StatusCreated     Status = "✅"
	StatusRead        Status = "📖"
	StatusDeleted     Status = "🗑️"
	StatusEdited      Status = "✏️"
	StatusTaskAdded   Status = "📝"
	StatusFailed      Status = "❌"
	StatusUnsupported Status = "⚠️"
	StatusAnswer      Status = "💬"
)

// NotFound is embedded in read and delete lines when the file is missing.
const NotFound = "❌ File not found."

// NoResponse stands in for a reply with neither text nor tool calls.
const NoResponse = "No model response."

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (r Result) String() string {
	return string(r.Status) + " " + r.Message
}

// Reply is what one request produced. Results holds one entry per tool call,
// in the order the model listed them, or a single answer line. Tasks is the
// task table as it stands after the calls ran.
type Reply struct {
	Results []Result     `json:"results"`
	Tasks   []tasks.Task `json:"tasks"`
}

func (r Reply) Lines() []string {
	lines := make([]string, len(r.Results))
	for i, res := range r.Results {
		lines[i] = res.String()
	}
	return lines
}

func (r Reply) Text() string {
	return strings.Join(r.Lines(), "\n")
}
