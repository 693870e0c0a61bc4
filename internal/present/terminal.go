// Package present shows pipeline output: terminal panes, the websocket hub
// and the spoken read-out.
package present

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"voxassist/internal/assistant"
	"voxassist/internal/tasks"
)

const (
	TitleTranscription = "🎙️ Transcription"
	TitleResponse      = "💡 AI Response"
	TitleTasks         = "📋 Task Table"
)

type Terminal struct {
	w io.Writer

	title lipgloss.Style
	pane  lipgloss.Style
	muted lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:     w,
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		muted: lipgloss.NewStyle().Faint(true),
	}
}

func (t *Terminal) Show(out assistant.Output) error {
	_, err := fmt.Fprintln(t.w, t.Render(out))
	return err
}

// ShowError renders a failed request: whatever was transcribed plus the error
// in the response pane.
func (t *Terminal) ShowError(out assistant.Output, err error) error {
	out.Response = string(assistant.StatusFailed) + " " + err.Error()
	return t.Show(out)
}

func (t *Terminal) Render(out assistant.Output) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		t.section(TitleTranscription, orNone(out.Transcription, "(nothing heard)")),
		t.section(TitleResponse, orNone(out.Response, "(no response)")),
		t.section(TitleTasks, t.taskTable(out.Tasks)),
	)
}

func (t *Terminal) section(title, body string) string {
	return t.pane.Render(t.title.Render(title) + "\n" + body)
}

func (t *Terminal) taskTable(list []tasks.Task) string {
	if len(list) == 0 {
		return t.muted.Render("(no tasks)")
	}
	return TaskTable(list)
}

// TaskTable lays tasks out as "#  description  created" rows.
func TaskTable(list []tasks.Task) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDescription\tCreated")
	for i, task := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, task.Description, task.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func orNone(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
