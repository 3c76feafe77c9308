package model

import (
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFromFields(t *testing.T) {
	u := UserFromFields(map[string]any{
		"_id":        "65f0c0ffee",
		"email":      " alice@example.com ",
		"name":       "Alice Smith",
		"age":        float64(30),
		"role":       "admin",
		"department": "ops",
	})

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Smith", u.Name)
	require.NotNil(t, u.Age)
	assert.Equal(t, 30, *u.Age)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, map[string]any{"department": "ops"}, u.Extra)
	assert.NotContains(t, u.Fields(), InternalIDField)
}

func TestUserAgeNotNumericKeptInExtra(t *testing.T) {
	u := UserFromFields(map[string]any{"email": "a@b.co", "age": "thirty"})
	assert.Nil(t, u.Age)
	assert.Equal(t, "thirty", u.Fields()["age"])
}

func TestUserJSONRoundTrip(t *testing.T) {
	age := 41
	in := User{Email: "bob@example.com", Name: "Bob", Age: &age, Extra: map[string]any{"team": "blue"}}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"bob@example.com","name":"Bob","age":41,"team":"blue"}`, string(b))

	var out User
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestUserMatches(t *testing.T) {
	age := 30
	u := User{Email: "alice@example.com", Name: "Alice", Age: &age, Role: "manager"}

	assert.True(t, u.Matches(nil))
	assert.True(t, u.Matches(map[string]any{"email": "alice@example.com"}))
	assert.True(t, u.Matches(map[string]any{"age": float64(30), "role": "manager"}))
	assert.False(t, u.Matches(map[string]any{"age": 31}))
	assert.False(t, u.Matches(map[string]any{"department": "ops"}))
}

func TestUserMergeKeepsOtherFields(t *testing.T) {
	age := 30
	u := User{Email: "alice@example.com", Name: "Alice", Age: &age}
	merged := u.Merge(map[string]any{"role": "manager"})

	assert.Equal(t, "manager", merged.Role)
	assert.Equal(t, "Alice", merged.Name)
	assert.Equal(t, 30, *merged.Age)
	assert.Empty(t, u.Role, "original must not change")
}

func TestCoerceInt(t *testing.T) {
	for _, v := range []any{30, int64(30), float64(30), "30", json.Number("30")} {
		n, ok := CoerceInt(v)
		assert.True(t, ok, "%#v", v)
		assert.Equal(t, 30, n)
	}
	_, ok := CoerceInt(30.5)
	assert.False(t, ok)
	_, ok = CoerceInt([]any{1})
	assert.False(t, ok)
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, ResolvePricing("gemini-2.0-flash"))
	assert.InDelta(t, 0.10, in, 1e-9)
	assert.InDelta(t, 0.20, out, 1e-9)
	assert.InDelta(t, 0.30, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.0-flash"))
	assert.Zero(t, total)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown-model"))
}
