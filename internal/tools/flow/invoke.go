// Package flow implements the invoke_flow native tool: run a Bedrock Flow
// alias and report its output document and completion reason.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/jsonschema-go/jsonschema"
)

// ToolName is the identifier advertised to the model.
const ToolName = "invoke_flow"

// API is the subset of the Bedrock Agent Runtime client the tool uses.
type API interface {
	InvokeFlow(ctx context.Context, params *bedrockagentruntime.InvokeFlowInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeFlowOutput, error)
}

// eventStream abstracts the SDK's InvokeFlow event stream so tests can
// substitute a scripted one.
type eventStream interface {
	Events() <-chan types.FlowResponseStream
	Close() error
	Err() error
}

// Tool invokes Bedrock Flow aliases. It makes no assumptions about the
// flow's input schema beyond the standard document content slot; the model
// must supply exact node names.
type Tool struct {
	api    API
	stream func(*bedrockagentruntime.InvokeFlowOutput) eventStream
	logger *slog.Logger
}

// Option is a functional option for configuring the Tool
type Option func(*Tool)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) { t.logger = logger }
}

// withStream overrides event stream extraction, for tests.
func withStream(fn func(*bedrockagentruntime.InvokeFlowOutput) eventStream) Option {
	return func(t *Tool) { t.stream = fn }
}

// New creates the tool from an API implementation.
func New(api API, opts ...Option) *Tool {
	t := &Tool{
		api: api,
		stream: func(out *bedrockagentruntime.InvokeFlowOutput) eventStream {
			return out.GetStream()
		},
		logger: slog.Default().WithGroup("tools.flow"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromRegion creates the tool with a real Bedrock Agent Runtime client.
func NewFromRegion(ctx context.Context, region string, opts ...Option) (*Tool, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(bedrockagentruntime.NewFromConfig(awsCfg), opts...), nil
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Invoke a Bedrock Flow alias and return its output document, completion reason, " +
		"and the kinds of raw events received. Node names must match the flow exactly."
}

func (t *Tool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"flow_id": {
				Type:        "string",
				Description: "The Flow ID (flowIdentifier)",
			},
			"flow_alias_id": {
				Type:        "string",
				Description: "The Flow alias ID (flowAliasIdentifier)",
			},
			"node_name": {
				Type:        "string",
				Description: "Exact name of the flow input node, e.g. InputNode",
			},
			"node_output_name": {
				Type:        "string",
				Description: "Exact output name on the input node, e.g. document",
			},
			"document": {
				Description: "Value sent as content.document; must match the schema the input node expects",
			},
		},
		Required: []string{"flow_id", "flow_alias_id", "node_name", "node_output_name", "document"},
	}
}

// result is the JSON payload returned to the model.
type result struct {
	FlowID           string   `json:"flow_id"`
	FlowAliasID      string   `json:"flow_alias_id"`
	NodeName         string   `json:"node_name"`
	NodeOutputName   string   `json:"node_output_name"`
	CompletionReason *string  `json:"completion_reason"`
	OutputDocument   any      `json:"output_document"`
	RawEvents        []string `json:"raw_events"`
}

// Call runs one flow invocation. Transport errors from InvokeFlow propagate
// to the caller unchanged.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	flowID, _ := args["flow_id"].(string)
	aliasID, _ := args["flow_alias_id"].(string)
	nodeName, _ := args["node_name"].(string)
	nodeOutputName, _ := args["node_output_name"].(string)
	if flowID == "" || aliasID == "" || nodeName == "" || nodeOutputName == "" {
		return "", errors.New("flow_id, flow_alias_id, node_name, and node_output_name are required")
	}
	doc, ok := args["document"]
	if !ok {
		return "", errors.New("document is required")
	}

	out, err := t.api.InvokeFlow(ctx, &bedrockagentruntime.InvokeFlowInput{
		FlowIdentifier:      aws.String(flowID),
		FlowAliasIdentifier: aws.String(aliasID),
		Inputs: []types.FlowInput{{
			Content:        &types.FlowInputContentMemberDocument{Value: document.NewLazyDocument(doc)},
			NodeName:       aws.String(nodeName),
			NodeOutputName: aws.String(nodeOutputName),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("invoke flow %s: %w", flowID, err)
	}

	res := result{
		FlowID:         flowID,
		FlowAliasID:    aliasID,
		NodeName:       nodeName,
		NodeOutputName: nodeOutputName,
		RawEvents:      []string{},
	}

	stream := t.stream(out)
	defer func() {
		if err := stream.Close(); err != nil {
			t.logger.Debug("failed to close flow event stream", "error", err)
		}
	}()

	for event := range stream.Events() {
		switch e := event.(type) {
		case *types.FlowResponseStreamMemberFlowCompletionEvent:
			res.RawEvents = append(res.RawEvents, "flowCompletionEvent")
			reason := string(e.Value.CompletionReason)
			res.CompletionReason = &reason
		case *types.FlowResponseStreamMemberFlowOutputEvent:
			res.RawEvents = append(res.RawEvents, "flowOutputEvent")
			if content, ok := e.Value.Content.(*types.FlowOutputContentMemberDocument); ok {
				// Smithy documents only unmarshal into concrete targets, so
				// round-trip through their JSON form instead.
				data, err := content.Value.MarshalSmithyDocument()
				if err != nil {
					t.logger.Debug("failed to encode flow output document", "error", err)
					continue
				}
				var decoded json.RawMessage
				if err := json.Unmarshal(data, &decoded); err != nil {
					t.logger.Debug("failed to decode flow output document", "error", err)
					continue
				}
				res.OutputDocument = decoded
			}
		default:
			res.RawEvents = append(res.RawEvents, fmt.Sprintf("%T", event))
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("flow response stream: %w", err)
	}

	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshal flow result: %w", err)
	}
	return string(data), nil
}
