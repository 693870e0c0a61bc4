// Package tools declares the fixed catalog of file and task tools the
// assistant offers to the language model, and turns the model's raw tool
// calls into typed values.
package tools

import "slices"

const (
	NameCreateFile = "create_file"
	NameReadFile   = "read_file"
	NameDeleteFile = "delete_file"
	NameEditFile   = "edit_file"
	NameAddTask    = "add_task"
)

// Registry is the read-only tool catalog. Build it once with NewRegistry and
// pass it around; it is safe for concurrent use because nothing mutates it.
type Registry struct {
	catalog []Schema
	index   map[string]int
}

func NewRegistry() *Registry {
	catalog := []Schema{
		NewSchema(NameCreateFile, "Create a file with the given content, replacing it if it exists").
			AddParam("filename", "string", "Name of the file to create", true).
			AddParam("content", "string", "Text to write into the file", true).
			Build(),
		NewSchema(NameReadFile, "Read the content of a file").
			AddParam("filename", "string", "Name of the file to read", true).
			Build(),
		NewSchema(NameDeleteFile, "Delete a file").
			AddParam("filename", "string", "Name of the file to delete", true).
			Build(),
		NewSchema(NameEditFile, "Replace the whole content of a file").
			AddParam("filename", "string", "Name of the file to edit", true).
			AddParam("content", "string", "New content of the file", true).
			Build(),
		NewSchema(NameAddTask, "Add a task to the task list").
			AddParam("task_description", "string", "What needs to be done", true).
			Build(),
	}

	index := make(map[string]int, len(catalog))
	for i, s := range catalog {
		index[s.Name] = i
	}
	return &Registry{catalog: catalog, index: index}
}

// Catalog returns every tool in declaration order.
func (r *Registry) Catalog() []Schema {
	return slices.Clone(r.catalog)
}

func (r *Registry) Lookup(name string) (Schema, bool) {
	i, ok := r.index[name]
	if !ok {
		return Schema{}, false
	}
	return r.catalog[i], true
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.catalog))
	for i, s := range r.catalog {
		names[i] = s.Name
	}
	return names
}
