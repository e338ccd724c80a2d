// Package agent drives the Bedrock Converse tool-use loop: prompts go in,
// tool-use blocks are executed against the catalog, and the model's final
// text comes out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/harborline/flowgate/internal/config"
	"github.com/harborline/flowgate/internal/memory"
	"github.com/harborline/flowgate/internal/tools"
)

// ConverseAPI is the subset of the Bedrock Runtime client the agent uses.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Memory is the transcript store consumed by the agent.
type Memory interface {
	Append(sessionID string, msgs ...memory.Message) error
	History(sessionID string) ([]memory.Message, error)
}

// Agent runs conversations against a Bedrock model with the catalog's tools
// attached.
type Agent struct {
	api          ConverseAPI
	catalog      *tools.Catalog
	store        Memory
	modelID      string
	systemPrompt string
	maxTurns     int
	logger       *slog.Logger
}

// Option is a functional option for configuring the Agent
type Option func(*Agent)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New creates an Agent from an API implementation.
func New(api ConverseAPI, catalog *tools.Catalog, store Memory, cfg config.Agent, opts ...Option) *Agent {
	a := &Agent{
		api:          api,
		catalog:      catalog,
		store:        store,
		modelID:      cfg.ModelID,
		systemPrompt: cfg.SystemPrompt,
		maxTurns:     cfg.MaxTurns,
		logger:       slog.Default().WithGroup("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig creates an Agent with a real Bedrock Runtime client.
func NewFromConfig(ctx context.Context, cfg config.Agent, catalog *tools.Catalog, store Memory, opts ...Option) (*Agent, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(bedrockruntime.NewFromConfig(awsCfg), catalog, store, cfg, opts...), nil
}

// Invoke runs one prompt through the conversation loop and returns the
// model's final text. The session transcript is loaded before and persisted
// after the exchange.
func (a *Agent) Invoke(ctx context.Context, sessionID, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	messages, err := a.loadHistory(sessionID)
	if err != nil {
		return "", err
	}
	messages = append(messages, textMessage(types.ConversationRoleUser, prompt))

	toolConfig, err := a.toolConfig()
	if err != nil {
		return "", err
	}

	var finalText string
	for turn := 0; turn < a.maxTurns; turn++ {
		out, err := a.api.Converse(ctx, &bedrockruntime.ConverseInput{
			ModelId:    aws.String(a.modelID),
			Messages:   messages,
			System:     a.system(),
			ToolConfig: toolConfig,
		})
		if err != nil {
			return "", fmt.Errorf("converse with %s: %w", a.modelID, err)
		}

		outMsg, ok := out.Output.(*types.ConverseOutputMemberMessage)
		if !ok {
			return "", ErrNoOutput
		}
		messages = append(messages, outMsg.Value)
		finalText = collectText(outMsg.Value)

		if out.StopReason != types.StopReasonToolUse {
			a.persist(sessionID, prompt, finalText)
			return finalText, nil
		}

		resultMsg, err := a.runTools(ctx, outMsg.Value)
		if err != nil {
			return "", err
		}
		messages = append(messages, resultMsg)
	}

	a.logger.Warn("turn cap reached before model stopped", "session", sessionID, "max_turns", a.maxTurns)
	return "", fmt.Errorf("%w: %d", ErrMaxTurnsExceeded, a.maxTurns)
}

func (a *Agent) loadHistory(sessionID string) ([]types.Message, error) {
	history, err := a.store.History(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	messages := make([]types.Message, 0, len(history)+1)
	for _, msg := range history {
		role := types.ConversationRoleUser
		if msg.Role == memory.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		messages = append(messages, textMessage(role, msg.Text))
	}
	return messages, nil
}

// persist records the exchange. The response was already produced, so a
// store failure is logged rather than returned.
func (a *Agent) persist(sessionID, prompt, response string) {
	err := a.store.Append(sessionID,
		memory.Message{Role: memory.RoleUser, Text: prompt},
		memory.Message{Role: memory.RoleAssistant, Text: response},
	)
	if err != nil {
		a.logger.Error("failed to persist transcript", "session", sessionID, "error", err)
	}
}

func (a *Agent) system() []types.SystemContentBlock {
	if a.systemPrompt == "" {
		return nil
	}
	return []types.SystemContentBlock{
		&types.SystemContentBlockMemberText{Value: a.systemPrompt},
	}
}

// toolConfig converts the catalog into Converse tool specifications.
func (a *Agent) toolConfig() (*types.ToolConfiguration, error) {
	catalogTools := a.catalog.List()
	if len(catalogTools) == 0 {
		return nil, nil
	}

	specs := make([]types.Tool, 0, len(catalogTools))
	for _, tool := range catalogTools {
		schemaDoc, err := schemaDocument(tool)
		if err != nil {
			return nil, err
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name()),
				Description: aws.String(tool.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: schemaDoc},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}, nil
}

// schemaDocument round-trips the JSON schema through encoding/json so it can
// be sent as a smithy document.
func schemaDocument(tool tools.Tool) (document.Interface, error) {
	raw, err := json.Marshal(tool.InputSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", tool.Name(), err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode schema for %s: %w", tool.Name(), err)
	}
	return document.NewLazyDocument(m), nil
}

// runTools executes every tool-use block in an assistant message and bundles
// the results into the follow-up user message. Tool failures become
// error-status results for the model instead of aborting the conversation.
func (a *Agent) runTools(ctx context.Context, msg types.Message) (types.Message, error) {
	var blocks []types.ContentBlock
	for _, content := range msg.Content {
		use, ok := content.(*types.ContentBlockMemberToolUse)
		if !ok {
			continue
		}

		name := aws.ToString(use.Value.Name)
		args := map[string]any{}
		if use.Value.Input != nil {
			if err := use.Value.Input.UnmarshalSmithyDocument(&args); err != nil {
				return types.Message{}, fmt.Errorf("decode input for tool %s: %w", name, err)
			}
		}

		payload, status := a.execute(ctx, name, args)
		blocks = append(blocks, &types.ContentBlockMemberToolResult{
			Value: types.ToolResultBlock{
				ToolUseId: use.Value.ToolUseId,
				Status:    status,
				Content: []types.ToolResultContentBlock{
					&types.ToolResultContentBlockMemberText{Value: payload},
				},
			},
		})
	}

	if len(blocks) == 0 {
		return types.Message{}, fmt.Errorf("stop reason was tool use but no tool use blocks found")
	}
	return types.Message{Role: types.ConversationRoleUser, Content: blocks}, nil
}

func (a *Agent) execute(ctx context.Context, name string, args map[string]any) (string, types.ToolResultStatus) {
	tool, ok := a.catalog.Get(name)
	if !ok {
		a.logger.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("unknown tool: %s", name), types.ToolResultStatusError
	}

	a.logger.Debug("executing tool", "tool", name)
	payload, err := tool.Call(ctx, args)
	if err != nil {
		a.logger.Warn("tool execution failed", "tool", name, "error", err)
		return err.Error(), types.ToolResultStatusError
	}
	return payload, types.ToolResultStatusSuccess
}

func textMessage(role types.ConversationRole, text string) types.Message {
	return types.Message{
		Role:    role,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
	}
}

func collectText(msg types.Message) string {
	var parts []string
	for _, content := range msg.Content {
		if text, ok := content.(*types.ContentBlockMemberText); ok {
			parts = append(parts, text.Value)
		}
	}
	return strings.Join(parts, "")
}
