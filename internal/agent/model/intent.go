package model

import (
	"fmt"
	"strings"
)

// Intent is the classified purpose of a user turn.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentRead   Intent = "read"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
)

// Intents lists every intent in classification priority order.
var Intents = []Intent{IntentCreate, IntentRead, IntentUpdate, IntentDelete}

// Label is the upper-case name used in prompts.
func (i Intent) Label() string {
	return strings.ToUpper(string(i))
}

// Mutating reports whether the intent changes the store.
func (i Intent) Mutating() bool {
	return i == IntentCreate || i == IntentUpdate || i == IntentDelete
}

// Valid reports whether i is one of the four known intents.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// MissingFields returns the mandatory fields absent from params:
// CREATE needs name and email, UPDATE needs email plus one more field,
// DELETE needs email, READ needs nothing.
func (i Intent) MissingFields(params map[string]any) []string {
	var missing []string
	switch i {
	case IntentCreate:
		if !present(params, "name") {
			missing = append(missing, "name")
		}
		if !present(params, "email") {
			missing = append(missing, "email")
		}
	case IntentUpdate:
		if !present(params, "email") {
			missing = append(missing, "email")
		}
		others := 0
		for k := range params {
			if k != "email" {
				others++
			}
		}
		if others == 0 {
			missing = append(missing, "fields to update")
		}
	case IntentDelete:
		if !present(params, "email") {
			missing = append(missing, "email")
		}
	}
	return missing
}

func present(params map[string]any, key string) bool {
	v, ok := params[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return strings.TrimSpace(fmt.Sprint(v)) != ""
}
