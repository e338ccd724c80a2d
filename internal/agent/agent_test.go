package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/harborline/flowgate/internal/config"
	"github.com/harborline/flowgate/internal/memory"
	"github.com/harborline/flowgate/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverse returns its scripted outputs in order and records inputs.
type fakeConverse struct {
	outputs []*bedrockruntime.ConverseOutput
	err     error
	inputs  []*bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.inputs) - 1
	if call >= len(f.outputs) {
		call = len(f.outputs) - 1
	}
	return f.outputs[call], nil
}

type fakeMemory struct {
	history  []memory.Message
	appended []memory.Message
	loadErr  error
}

func (f *fakeMemory) Append(_ string, msgs ...memory.Message) error {
	f.appended = append(f.appended, msgs...)
	return nil
}

func (f *fakeMemory) History(string) ([]memory.Message, error) {
	return f.history, f.loadErr
}

type echoTool struct {
	lastArgs map[string]any
	err      error
}

func (e *echoTool) Name() string                    { return "echo" }
func (e *echoTool) Description() string             { return "Echo the input back" }
func (e *echoTool) InputSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "object"} }
func (e *echoTool) Call(_ context.Context, args map[string]any) (string, error) {
	e.lastArgs = args
	if e.err != nil {
		return "", e.err
	}
	return "echoed", nil
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
		}},
		StopReason: types.StopReasonEndTurn,
	}
}

func toolUseOutput(toolName string, args map[string]any) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role: types.ConversationRoleAssistant,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: "using a tool"},
				&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String("use-1"),
					Name:      aws.String(toolName),
					Input:     document.NewLazyDocument(args),
				}},
			},
		}},
		StopReason: types.StopReasonToolUse,
	}
}

func agentConfig() config.Agent {
	return config.Agent{
		ModelID:      "anthropic.claude-sonnet",
		Region:       "us-west-2",
		SystemPrompt: "be helpful",
		MaxTurns:     4,
	}
}

func TestInvokeSingleTurn(t *testing.T) {
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{textOutput("plain answer")}}
	store := &fakeMemory{}
	a := New(api, tools.NewCatalog(), store, agentConfig())

	out, err := a.Invoke(t.Context(), "api-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)

	// transcript persisted
	require.Len(t, store.appended, 2)
	assert.Equal(t, memory.RoleUser, store.appended[0].Role)
	assert.Equal(t, "hello", store.appended[0].Text)
	assert.Equal(t, memory.RoleAssistant, store.appended[1].Role)

	// system prompt attached, no tool config for an empty catalog
	require.Len(t, api.inputs, 1)
	require.Len(t, api.inputs[0].System, 1)
	assert.Nil(t, api.inputs[0].ToolConfig)
	assert.Equal(t, "anthropic.claude-sonnet", aws.ToString(api.inputs[0].ModelId))
}

func TestInvokeToolRoundTrip(t *testing.T) {
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{
		toolUseOutput("echo", map[string]any{"text": "hi"}),
		textOutput("tool said: echoed"),
	}}
	catalog := tools.NewCatalog()
	echo := &echoTool{}
	require.NoError(t, catalog.Register(echo))
	a := New(api, catalog, &fakeMemory{}, agentConfig())

	out, err := a.Invoke(t.Context(), "api-1", "use the echo tool")
	require.NoError(t, err)
	assert.Equal(t, "tool said: echoed", out)
	assert.Equal(t, "hi", echo.lastArgs["text"])

	// second call carries the tool result back to the model
	require.Len(t, api.inputs, 2)
	second := api.inputs[1]
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, types.ConversationRoleUser, last.Role)
	result, ok := last.Content[0].(*types.ContentBlockMemberToolResult)
	require.True(t, ok)
	assert.Equal(t, "use-1", aws.ToString(result.Value.ToolUseId))
	assert.Equal(t, types.ToolResultStatusSuccess, result.Value.Status)

	// tool config advertised on both calls
	require.NotNil(t, second.ToolConfig)
	require.Len(t, second.ToolConfig.Tools, 1)
}

func TestInvokeToolErrorBecomesErrorResult(t *testing.T) {
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{
		toolUseOutput("echo", nil),
		textOutput("recovered"),
	}}
	catalog := tools.NewCatalog()
	require.NoError(t, catalog.Register(&echoTool{err: errors.New("tool exploded")}))
	a := New(api, catalog, &fakeMemory{}, agentConfig())

	out, err := a.Invoke(t.Context(), "api-1", "go")
	require.NoError(t, err, "tool failure must not abort the conversation")
	assert.Equal(t, "recovered", out)

	result := api.inputs[1].Messages[len(api.inputs[1].Messages)-1].Content[0].(*types.ContentBlockMemberToolResult)
	assert.Equal(t, types.ToolResultStatusError, result.Value.Status)
	text := result.Value.Content[0].(*types.ToolResultContentBlockMemberText)
	assert.Contains(t, text.Value, "tool exploded")
}

func TestInvokeUnknownToolReported(t *testing.T) {
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{
		toolUseOutput("not_registered", nil),
		textOutput("ok"),
	}}
	catalog := tools.NewCatalog()
	require.NoError(t, catalog.Register(&echoTool{}))
	a := New(api, catalog, &fakeMemory{}, agentConfig())

	_, err := a.Invoke(t.Context(), "api-1", "go")
	require.NoError(t, err)

	result := api.inputs[1].Messages[len(api.inputs[1].Messages)-1].Content[0].(*types.ContentBlockMemberToolResult)
	assert.Equal(t, types.ToolResultStatusError, result.Value.Status)
}

func TestInvokeTurnCap(t *testing.T) {
	// Model keeps asking for tools forever.
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{
		toolUseOutput("echo", nil),
	}}
	catalog := tools.NewCatalog()
	require.NoError(t, catalog.Register(&echoTool{}))
	cfg := agentConfig()
	cfg.MaxTurns = 3
	a := New(api, catalog, &fakeMemory{}, cfg)

	_, err := a.Invoke(t.Context(), "api-1", "loop")
	require.ErrorIs(t, err, ErrMaxTurnsExceeded)
	assert.Len(t, api.inputs, 3)
}

func TestInvokeHistoryThreaded(t *testing.T) {
	api := &fakeConverse{outputs: []*bedrockruntime.ConverseOutput{textOutput("again")}}
	store := &fakeMemory{history: []memory.Message{
		{Role: memory.RoleUser, Text: "earlier question"},
		{Role: memory.RoleAssistant, Text: "earlier answer"},
	}}
	a := New(api, tools.NewCatalog(), store, agentConfig())

	_, err := a.Invoke(t.Context(), "api-1", "follow up")
	require.NoError(t, err)

	msgs := api.inputs[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, types.ConversationRoleUser, msgs[0].Role)
	assert.Equal(t, types.ConversationRoleAssistant, msgs[1].Role)
	assert.Equal(t, types.ConversationRoleUser, msgs[2].Role)
}

func TestInvokeValidation(t *testing.T) {
	a := New(&fakeConverse{}, tools.NewCatalog(), &fakeMemory{}, agentConfig())

	_, err := a.Invoke(t.Context(), "api-1", "   ")
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestInvokeConverseError(t *testing.T) {
	a := New(&fakeConverse{err: errors.New("throttled")}, tools.NewCatalog(), &fakeMemory{}, agentConfig())

	_, err := a.Invoke(t.Context(), "api-1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
