package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notedhq/noted/pkg/types"
)

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("")
	assert.Error(t, err)
}

func TestNewProviderEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.GetModel())
}

func TestWithModel(t *testing.T) {
	p, err := NewProvider("key", WithModel("gpt-4o-mini"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.GetModel())
}

func TestCompleteAgainstCompatibleServer(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "cmpl-1", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "Paris."}, "finish_reason": "stop"}]}`)
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)

	p, err := NewProvider("test-key")
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*types.Message{
		types.NewSystemMessage("Answer briefly."),
		types.NewUserMessage("What is the capital of France?"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "Paris.", msg.Content)
	assert.Equal(t, "Bearer test-key", gotAuth)

	var req map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, DefaultModel, req["model"])
	assert.Equal(t, float64(200), req["max_tokens"])
	assert.Equal(t, 0.7, req["temperature"])

	msgs := req["messages"].([]interface{})
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	second := msgs[1].(map[string]interface{})
	assert.Equal(t, "user", second["role"])
	assert.Equal(t, "What is the capital of France?", second["content"])
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "cmpl-1", "object": "chat.completion", "choices": []}`)
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)

	p, err := NewProvider("test-key")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	assert.Error(t, err)
}

func TestConvertMessagesCoversAllRoles(t *testing.T) {
	out := convertMessages([]*types.Message{
		types.NewSystemMessage("s"),
		types.NewUserMessage("u"),
		types.NewAssistantMessage("a"),
		{Role: types.MessageRole("unknown"), Content: "x"},
	})
	assert.Len(t, out, 4)
}
