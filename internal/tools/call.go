package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// RawCall is a tool invocation exactly as the model produced it.
type RawCall struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

// Call is one of the typed tool invocations below.
type Call interface {
	Tool() string
	isCall()
}

type CreateFile struct {
	Filename string `mapstructure:"filename"`
	Content  string `mapstructure:"content"`
}

type ReadFile struct {
	Filename string `mapstructure:"filename"`
}

type DeleteFile struct {
	Filename string `mapstructure:"filename"`
}

// EditFile overwrites the whole file, same as CreateFile.
type EditFile struct {
	Filename string `mapstructure:"filename"`
	Content  string `mapstructure:"content"`
}

type AddTask struct {
	Description string `mapstructure:"task_description"`
}

func (CreateFile) Tool() string { return NameCreateFile }
func (ReadFile) Tool() string   { return NameReadFile }
func (DeleteFile) Tool() string { return NameDeleteFile }
func (EditFile) Tool() string   { return NameEditFile }
func (AddTask) Tool() string    { return NameAddTask }

func (CreateFile) isCall() {}
func (ReadFile) isCall()   {}
func (DeleteFile) isCall() {}
func (EditFile) isCall()   {}
func (AddTask) isCall()    {}

type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unsupported tool %q", e.Name)
}

type ArgumentError struct {
	Tool  string
	Param string
	Err   error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: argument %q: %v", e.Tool, e.Param, e.Err)
	}
	return fmt.Sprintf("%s: missing required argument %q", e.Tool, e.Param)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Decode checks raw against the catalog and returns the typed call.
func (r *Registry) Decode(raw RawCall) (Call, error) {
	schema, ok := r.Lookup(raw.Name)
	if !ok {
		return nil, &UnknownToolError{Name: raw.Name}
	}
	for _, p := range schema.Params {
		if _, present := raw.Arguments[p.Name]; p.Required && !present {
			return nil, &ArgumentError{Tool: raw.Name, Param: p.Name}
		}
	}

	switch raw.Name {
	case NameCreateFile:
		return decodeAs[CreateFile](raw)
	case NameReadFile:
		return decodeAs[ReadFile](raw)
	case NameDeleteFile:
		return decodeAs[DeleteFile](raw)
	case NameEditFile:
		return decodeAs[EditFile](raw)
	case NameAddTask:
		return decodeAs[AddTask](raw)
	}
	return nil, &UnknownToolError{Name: raw.Name}
}

func decodeAs[T Call](raw RawCall) (Call, error) {
	var c T
	if err := decodeArgs(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeArgs(raw RawCall, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw.Arguments); err != nil {
		return &ArgumentError{Tool: raw.Name, Param: "*", Err: err}
	}
	return nil
}
