package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxassist/internal/files"
	"voxassist/internal/nlu"
	"voxassist/internal/tasks"
	"voxassist/internal/tools"
)

type fakeModel struct {
	replies []nlu.Reply
	err     error
	seen    []nlu.Request
}

func (m *fakeModel) Complete(_ context.Context, req nlu.Request) (nlu.Reply, error) {
	m.seen = append(m.seen, req)
	if m.err != nil {
		return nlu.Reply{}, m.err
	}
	if len(m.replies) == 0 {
		return nlu.Reply{}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

type fakeSTT struct {
	text string
	err  error
}

func (f fakeSTT) Transcribe(context.Context, []float32) (string, error) { return f.text, f.err }

func call(name string, kv ...string) tools.RawCall {
	args := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i]] = kv[i+1]
	}
	return tools.RawCall{Name: name, Arguments: args}
}

func text(s string) *string { return &s }

func newInterpreter(t *testing.T) (*Interpreter, string, *tasks.MemoryLog) {
	t.Helper()
	root := t.TempDir()
	log := tasks.NewMemoryLog()
	return NewInterpreter(tools.NewRegistry(), files.NewStore(root), log), root, log
}

func TestInterpretFreeText(t *testing.T) {
	in, _, _ := newInterpreter(t)

	reply := in.Interpret(context.Background(), nlu.Reply{Content: text("It is sunny.")})
	assert.Equal(t, []string{"💬 It is sunny."}, reply.Lines())
}

func TestInterpretNoContentNoCalls(t *testing.T) {
	in, _, _ := newInterpreter(t)

	for _, r := range []nlu.Reply{{}, {Content: text("")}} {
		reply := in.Interpret(context.Background(), r)
		assert.Equal(t, []string{"💬 " + NoResponse}, reply.Lines())
	}
}

func TestInterpretToolCallsWinOverText(t *testing.T) {
	in, root, _ := newInterpreter(t)

	reply := in.Interpret(context.Background(), nlu.Reply{
		Content:   text("I will create it"),
		ToolCalls: []tools.RawCall{call(tools.NameCreateFile, "filename", "a.txt", "content", "x")},
	})

	assert.Equal(t, []string{"✅ File `a.txt` created."}, reply.Lines())
	assert.NotContains(t, reply.Text(), "I will create it")

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestInterpretTaskThenFileKeepsOrder(t *testing.T) {
	in, _, _ := newInterpreter(t)

	reply := in.Interpret(context.Background(), nlu.Reply{ToolCalls: []tools.RawCall{
		call(tools.NameAddTask, "task_description", "buy milk"),
		call(tools.NameCreateFile, "filename", "a.txt", "content", "x"),
	}})

	assert.Equal(t, []string{
		"📝 Task added: buy milk",
		"✅ File `a.txt` created.",
	}, reply.Lines())
	require.Len(t, reply.Tasks, 1)
	assert.Equal(t, "buy milk", reply.Tasks[0].Description)
}

func TestInterpretNotesScenario(t *testing.T) {
	in, _, _ := newInterpreter(t)
	ctx := context.Background()

	reply := in.Interpret(ctx, nlu.Reply{ToolCalls: []tools.RawCall{
		call(tools.NameCreateFile, "filename", "notes.txt", "content", "hello"),
		call(tools.NameReadFile, "filename", "notes.txt"),
		call(tools.NameDeleteFile, "filename", "notes.txt"),
		call(tools.NameReadFile, "filename", "notes.txt"),
	}})

	assert.Equal(t, []string{
		"✅ File `notes.txt` created.",
		"📖 Read `notes.txt`:\nhello",
		"🗑️ File `notes.txt` deleted.",
		"📖 Read `notes.txt`:\n" + NotFound,
	}, reply.Lines())
	assert.ErrorIs(t, reply.Results[3].Err, files.ErrNotFound)
}

func TestInterpretEditOverwrites(t *testing.T) {
	in, root, _ := newInterpreter(t)

	reply := in.Interpret(context.Background(), nlu.Reply{ToolCalls: []tools.RawCall{
		call(tools.NameCreateFile, "filename", "f.txt", "content", "first version, longer"),
		call(tools.NameEditFile, "filename", "f.txt", "content", "second"),
	}})
	assert.Equal(t, "✏️ File `f.txt` edited.", reply.Results[1].String())

	data, err := os.ReadFile(filepath.Join(root, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	reply = in.Interpret(context.Background(), nlu.Reply{ToolCalls: []tools.RawCall{
		call(tools.NameCreateFile, "filename", "f.txt", "content", "third"),
	}})
	data, err = os.ReadFile(filepath.Join(root, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "third", string(data))
}

func TestInterpretDeleteMissingFile(t *testing.T) {
	in, _, _ := newInterpreter(t)

	reply := in.Interpret(context.Background(), nlu.Reply{ToolCalls: []tools.RawCall{
		call(tools.NameDeleteFile, "filename", "ghost.txt"),
	}})
	require.Len(t, reply.Results, 1)
	assert.Equal(t, StatusDeleted, reply.Results[0].Status)
	assert.Contains(t, reply.Results[0].Message, NotFound)
	assert.ErrorIs(t, reply.Results[0].Err, files.ErrNotFound)
}

func TestInterpretFailuresDoNotAbortBatch(t *testing.T) {
	in, root, _ := newInterpreter(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	reply := in.Interpret(context.Background(), nlu.Reply{ToolCalls: []tools.RawCall{
		call("format_disk", "device", "/dev/sda"),
		call(tools.NameCreateFile, "filename", "dir", "content", "x"),
		call(tools.NameCreateFile, "filename", "only-name.txt"),
		call(tools.NameAddTask, "task_description", "   "),
		call(tools.NameDeleteFile, "filename", "dir"),
		call(tools.NameCreateFile, "filename", "ok.txt", "content", "fine"),
	}})

	require.Len(t, reply.Results, 6)
	assert.Equal(t, "⚠️ Unsupported tool `format_disk`.", reply.Results[0].String())

	assert.Equal(t, StatusFailed, reply.Results[1].Status)
	assert.True(t, strings.HasPrefix(reply.Results[1].Message, "Failed to create `dir`"))
	var pe *files.PathError
	assert.ErrorAs(t, reply.Results[1].Err, &pe)

	assert.Equal(t, StatusFailed, reply.Results[2].Status)
	assert.Contains(t, reply.Results[2].Message, `missing required argument "content"`)

	assert.Equal(t, StatusFailed, reply.Results[3].Status)
	assert.ErrorIs(t, reply.Results[3].Err, tasks.ErrEmptyDescription)

	assert.Equal(t, StatusFailed, reply.Results[4].Status)
	assert.Contains(t, reply.Results[4].Message, "is a directory")

	assert.Equal(t, "✅ File `ok.txt` created.", reply.Results[5].String())
}

func TestInterpretProducesOneLinePerCall(t *testing.T) {
	in, _, _ := newInterpreter(t)

	var calls []tools.RawCall
	for i := 0; i < 12; i++ {
		calls = append(calls, call(tools.NameAddTask, "task_description", strings.Repeat("t", i+1)))
	}

	reply := in.Interpret(context.Background(), nlu.Reply{ToolCalls: calls})
	require.Len(t, reply.Results, len(calls))
	for i, r := range reply.Results {
		assert.Equal(t, "Task added: "+strings.Repeat("t", i+1), r.Message)
	}
	assert.Len(t, reply.Tasks, len(calls))
}

func TestSessionSendsSingleUserMessageWithCatalog(t *testing.T) {
	in, _, _ := newInterpreter(t)
	model := &fakeModel{replies: []nlu.Reply{{Content: text("hi")}, {Content: text("again")}}}
	catalog := tools.NewRegistry().Catalog()
	s := NewSession(model, in, catalog)

	_, err := s.Handle(context.Background(), "  hello  ")
	require.NoError(t, err)
	_, err = s.Handle(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, model.seen, 2)
	for i, want := range []string{"hello", "second"} {
		assert.Equal(t, []nlu.Message{{Role: nlu.RoleUser, Content: want}}, model.seen[i].Messages)
		assert.Equal(t, catalog, model.seen[i].Tools)
	}
}

func TestSessionModelFailureIsFatal(t *testing.T) {
	in, _, taskLog := newInterpreter(t)
	boom := errors.New("connection refused")
	s := NewSession(&fakeModel{err: boom}, in, nil)

	reply, err := s.Handle(context.Background(), "add a task")
	var me *ModelError
	require.ErrorAs(t, err, &me)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reply.Results)

	got, err := taskLog.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionRejectsEmptyText(t *testing.T) {
	in, _, _ := newInterpreter(t)
	model := &fakeModel{}
	s := NewSession(model, in, nil)

	_, err := s.Handle(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, model.seen)
}

func TestPipelineRun(t *testing.T) {
	in, _, _ := newInterpreter(t)
	model := &fakeModel{replies: []nlu.Reply{{ToolCalls: []tools.RawCall{
		call(tools.NameAddTask, "task_description", "buy milk"),
	}}}}
	p := NewPipeline(fakeSTT{text: "add buy milk"}, NewSession(model, in, nil))

	out, err := p.Run(context.Background(), []float32{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, "add buy milk", out.Transcription)
	assert.Equal(t, "📝 Task added: buy milk", out.Response)
	require.Len(t, out.Tasks, 1)
}

func TestPipelineNoAudio(t *testing.T) {
	in, _, _ := newInterpreter(t)
	model := &fakeModel{}
	p := NewPipeline(fakeSTT{text: "unused"}, NewSession(model, in, nil))

	_, err := p.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAudio)
	assert.Empty(t, model.seen)
}

func TestPipelineTranscriptionFailure(t *testing.T) {
	in, _, _ := newInterpreter(t)
	p := NewPipeline(fakeSTT{err: errors.New("model not loaded")}, NewSession(&fakeModel{}, in, nil))

	_, err := p.Run(context.Background(), []float32{0.1})
	assert.ErrorContains(t, err, "transcribe: model not loaded")
}
