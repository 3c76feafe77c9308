// Package formatter shapes retrieved records and the declared schema into the
// database-context fragment used by the extraction prompt.
package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

// MaxSamples bounds how many retrieved records are shown to the oracle.
const MaxSamples = 2

// Context is the intent-specific view of the schema and retrieved records.
type Context struct {
	Intent           model.Intent
	AvailableFields  []string
	RequiredFields   []string
	OptionalFields   []string
	IdentifierFields []string
	UpdateableFields []string
	Samples          []model.User
}

// Formatter is safe for concurrent use; it holds no mutable state.
type Formatter struct {
	schema Schema
}

func New(schema Schema) *Formatter {
	return &Formatter{schema: schema}
}

func (f *Formatter) Schema() Schema {
	return f.schema
}

// Process derives the field roles for intent. CREATE gets required/optional
// fields, UPDATE gets identifier/updateable fields, DELETE gets identifiers.
func (f *Formatter) Process(records []model.User, intent model.Intent) Context {
	c := Context{
		Intent:          intent,
		AvailableFields: f.schema.Fields,
		Samples:         records,
	}
	switch intent {
	case model.IntentCreate:
		c.RequiredFields = []string{"name", "email"}
		c.OptionalFields = without(f.schema.Fields, "name", "email")
	case model.IntentUpdate:
		c.IdentifierFields = []string{"email"}
		c.UpdateableFields = without(f.schema.Fields, "email")
	case model.IntentDelete:
		c.IdentifierFields = []string{"email"}
	}
	return c
}

// Render writes the compact prompt fragment for c.
func (c Context) Render() string {
	var b strings.Builder
	b.WriteString("--- DATABASE CONTEXT ---\n")
	fmt.Fprintf(&b, "Available fields: %s\n", strings.Join(c.AvailableFields, ", "))

	switch c.Intent {
	case model.IntentCreate:
		fmt.Fprintf(&b, "Required fields: %s\n", strings.Join(c.RequiredFields, ", "))
		fmt.Fprintf(&b, "Optional fields: %s\n", strings.Join(c.OptionalFields, ", "))
	case model.IntentUpdate:
		fmt.Fprintf(&b, "Identifier fields: %s\n", strings.Join(c.IdentifierFields, ", "))
		fmt.Fprintf(&b, "Updateable fields: %s\n", strings.Join(c.UpdateableFields, ", "))
	case model.IntentDelete:
		fmt.Fprintf(&b, "Identifier fields: %s\n", strings.Join(c.IdentifierFields, ", "))
	}

	if len(c.Samples) > 0 {
		b.WriteString("\nSample data:\n")
		for i, u := range c.Samples {
			if i == MaxSamples {
				break
			}
			doc, err := json.MarshalIndent(u, "", "  ")
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "Sample %d: %s\n", i+1, doc)
		}
	}
	return b.String()
}

// Format is Process followed by Render.
func (f *Formatter) Format(records []model.User, intent model.Intent) string {
	return f.Process(records, intent).Render()
}

func without(fields []string, drop ...string) []string {
	out := make([]string, 0, len(fields))
next:
	for _, f := range fields {
		for _, d := range drop {
			if f == d {
				continue next
			}
		}
		out = append(out, f)
	}
	return out
}
