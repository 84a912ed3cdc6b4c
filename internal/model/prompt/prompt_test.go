package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateApplyPartial(t *testing.T) {
	p := Prompt{Name: "dungeon", Template: "old", FirstUserMessage: strPtr("hello")}

	Update{Template: strPtr("new text")}.Apply(&p)

	assert.Equal(t, "dungeon", p.Name)
	assert.Equal(t, "new text", p.Template)
	require.NotNil(t, p.FirstUserMessage)
	assert.Equal(t, "hello", *p.FirstUserMessage)
}

func TestUpdateEmptyAndRenames(t *testing.T) {
	assert.True(t, Update{}.Empty())
	assert.False(t, Update{Name: strPtr("x")}.Empty())

	assert.False(t, Update{Name: strPtr("dungeon")}.Renames("dungeon"))
	assert.True(t, Update{Name: strPtr("castle")}.Renames("dungeon"))
	assert.False(t, Update{Template: strPtr("t")}.Renames("dungeon"))
}

func TestUpdateNullLeavesFieldUntouched(t *testing.T) {
	var upd Update
	require.NoError(t, json.Unmarshal([]byte(`{"first_user_message":null,"prompt":"new"}`), &upd))

	p := Prompt{Name: "dungeon", Template: "old", FirstUserMessage: strPtr("hello")}
	upd.Apply(&p)

	assert.Equal(t, "new", p.Template)
	require.NotNil(t, p.FirstUserMessage)
	assert.Equal(t, "hello", *p.FirstUserMessage)
}
