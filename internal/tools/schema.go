package tools

// Param describes one argument of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Schema describes a tool offered to the language model.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Parameters renders the schema's arguments as a JSON Schema object.
func (s Schema) Parameters() map[string]any {
	props := make(map[string]any, len(s.Params))
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// SchemaBuilder provides a fluent interface for building tool schemas.
type SchemaBuilder struct {
	schema Schema
}

func NewSchema(name, description string) *SchemaBuilder {
	return &SchemaBuilder{schema: Schema{Name: name, Description: description}}
}

func (b *SchemaBuilder) AddParam(name, paramType, description string, required bool) *SchemaBuilder {
	b.schema.Params = append(b.schema.Params, Param{
		Name:        name,
		Type:        paramType,
		Description: description,
		Required:    required,
	})
	return b
}

func (b *SchemaBuilder) Build() Schema {
	return b.schema
}
