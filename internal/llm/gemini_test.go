package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiContentsRoleMapping(t *testing.T) {
	t.Parallel()

	history := []Turn{
		{Role: RoleUser, Content: "oi"},
		{Role: RoleAssistant, Content: "Olá! Como posso ajudar?"},
		{Role: RoleUser, Content: "vocês alugam carros?"},
	}

	contents := geminiContents(history, "quanto custa a diária?")
	require.Len(t, contents, 4)

	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleModel, contents[1].Role)
	assert.EqualValues(t, genai.RoleUser, contents[2].Role)
	assert.EqualValues(t, genai.RoleUser, contents[3].Role)

	require.NotEmpty(t, contents[1].Parts)
	assert.Equal(t, "Olá! Como posso ajudar?", contents[1].Parts[0].Text)
	require.NotEmpty(t, contents[3].Parts)
	assert.Equal(t, "quanto custa a diária?", contents[3].Parts[0].Text)
}

func TestGeminiContentsEmptyHistory(t *testing.T) {
	t.Parallel()

	contents := geminiContents(nil, "oi")
	require.Len(t, contents, 1)
	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
}
