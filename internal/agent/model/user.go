package model

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// InternalIDField is the store-internal identifier stripped from mirrored
// and indexed records.
const InternalIDField = "_id"

// User is a record in the users collection. Email identifies the record.
// Fields other than the four known ones are kept in Extra and stored as-is.
type User struct {
	Email string
	Name  string
	Age   *int
	Role  string
	Extra map[string]any
}

// UserFromFields builds a User from a loose field map. An age that cannot be
// read as an integer is preserved untouched in Extra.
func UserFromFields(fields map[string]any) User {
	u := User{}
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = strings.TrimSpace(stringOf(v))
		case "name":
			u.Name = strings.TrimSpace(stringOf(v))
		case "role":
			u.Role = strings.TrimSpace(stringOf(v))
		case "age":
			if v == nil {
				continue
			}
			if n, ok := CoerceInt(v); ok {
				u.Age = &n
				continue
			}
			u.setExtra(k, v)
		case InternalIDField:
		default:
			u.setExtra(k, v)
		}
	}
	return u
}

func (u *User) setExtra(k string, v any) {
	if u.Extra == nil {
		u.Extra = map[string]any{}
	}
	u.Extra[k] = v
}

// Fields returns the record as a flat map. Empty optional fields are omitted.
func (u User) Fields() map[string]any {
	out := make(map[string]any, 4+len(u.Extra))
	for k, v := range u.Extra {
		out[k] = v
	}
	out["email"] = u.Email
	if u.Name != "" {
		out["name"] = u.Name
	}
	if u.Age != nil {
		out["age"] = *u.Age
	}
	if u.Role != "" {
		out["role"] = u.Role
	}
	return out
}

// Merge returns a copy of u with patch applied on top of its fields.
func (u User) Merge(patch map[string]any) User {
	fields := u.Fields()
	for k, v := range patch {
		fields[k] = v
	}
	return UserFromFields(fields)
}

// Matches reports whether every filter entry equals the corresponding field.
// Numbers compare by value regardless of their Go type.
func (u User) Matches(filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	fields := u.Fields()
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Fields())
}

func (u *User) UnmarshalJSON(b []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*u = UserFromFields(fields)
	return nil
}

// ValuesEqual compares two decoded JSON-ish values, normalising numbers.
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = normalize(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalize(inner)
		}
		return out
	default:
		return v
	}
}

// CoerceInt reads integers from the shapes a model or a JSON decoder emits:
// 30, 30.0, "30", json.Number("30").
func CoerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int(t), true
	case float32:
		return CoerceInt(float64(t))
	case json.Number:
		n, err := strconv.Atoi(t.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
