// Package cfn implements the deploy_stack native tool: create or update a
// CloudFormation stack and wait for a terminal status.
package cfn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/google/jsonschema-go/jsonschema"
)

// ToolName is the identifier advertised to the model.
const ToolName = "deploy_stack"

// maxReportedEvents caps how many recent stack events are attached to the
// result payload.
const maxReportedEvents = 10

// terminalStatuses are the stack statuses that end the polling loop.
var terminalStatuses = map[types.StackStatus]bool{
	types.StackStatusCreateComplete:         true,
	types.StackStatusCreateFailed:           true,
	types.StackStatusRollbackComplete:       true,
	types.StackStatusRollbackFailed:         true,
	types.StackStatusUpdateComplete:         true,
	types.StackStatusUpdateRollbackComplete: true,
	types.StackStatusUpdateRollbackFailed:   true,
}

// API is the subset of the CloudFormation client the tool uses.
type API interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
}

// Tool deploys CloudFormation stacks and blocks until the stack reaches a
// terminal status, a timeout passes, or the context is canceled.
type Tool struct {
	api          API
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// Option is a functional option for configuring the Tool
type Option func(*Tool)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) { t.logger = logger }
}

// WithPollInterval overrides how often the stack status is polled
func WithPollInterval(d time.Duration) Option {
	return func(t *Tool) { t.pollInterval = d }
}

// WithTimeout overrides the overall deadline for one deployment
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) { t.timeout = d }
}

// New creates the tool from an API implementation.
func New(api API, opts ...Option) *Tool {
	t := &Tool{
		api:          api,
		pollInterval: 10 * time.Second,
		timeout:      30 * time.Minute,
		logger:       slog.Default().WithGroup("tools.cfn"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromRegion creates the tool with a real CloudFormation client.
func NewFromRegion(ctx context.Context, region string, opts ...Option) (*Tool, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(cloudformation.NewFromConfig(awsCfg), opts...), nil
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Create or update a CloudFormation stack and wait until it reaches a terminal state. " +
		"Returns a JSON summary with the final stack status and recent stack events."
}

func (t *Tool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"stack_name": {
				Type:        "string",
				Description: "Name of the stack to create or update",
			},
			"template_body": {
				Type:        "string",
				Description: "Full CloudFormation template body (JSON or YAML)",
			},
			"parameters": {
				Type:        "object",
				Description: "Stack parameters as key/value string pairs",
			},
			"capabilities": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "IAM capabilities to acknowledge, e.g. CAPABILITY_IAM",
			},
		},
		Required: []string{"stack_name", "template_body"},
	}
}

// result is the JSON payload returned to the model.
type result struct {
	Status           string  `json:"status"`
	StackName        string  `json:"stack_name"`
	StackID          string  `json:"stack_id"`
	FinalStackStatus string  `json:"final_stack_status"`
	StatusReason     *string `json:"status_reason"`
	LastEvents       []event `json:"last_events"`
	Action           string  `json:"action"`
}

type event struct {
	Timestamp            string  `json:"timestamp"`
	ResourceType         string  `json:"resource_type"`
	LogicalResourceID    string  `json:"logical_resource_id"`
	ResourceStatus       string  `json:"resource_status"`
	ResourceStatusReason *string `json:"resource_status_reason"`
}

// Call runs one deployment.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	stackName, ok := args["stack_name"].(string)
	if !ok || stackName == "" {
		return "", errors.New("stack_name is required")
	}
	templateBody, ok := args["template_body"].(string)
	if !ok || templateBody == "" {
		return "", errors.New("template_body is required")
	}

	stackID, action, err := t.startDeployment(ctx, stackName, templateBody, args)
	if err != nil {
		return "", err
	}

	if action == "UPDATE_NOOP" {
		// CloudFormation rejects updates with no changes; report success
		// instead of surfacing the refusal as a failure.
		return marshalResult(result{
			Status:           "SUCCESS",
			StackName:        stackName,
			StackID:          stackID,
			FinalStackStatus: string(types.StackStatusUpdateComplete),
			StatusReason:     aws.String("No updates are to be performed"),
			LastEvents:       []event{},
			Action:           action,
		})
	}

	t.logger.Info("stack deployment started", "stack", stackName, "action", action)
	return t.waitForTerminal(ctx, stackName, stackID, action)
}

// startDeployment decides between create and update based on whether the
// stack already exists, mirroring CloudFormation's upsert convention.
func (t *Tool) startDeployment(ctx context.Context, stackName, templateBody string, args map[string]any) (stackID, action string, err error) {
	exists := true
	if _, err := t.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}); err != nil {
		exists = false
	}

	parameters := extractParameters(args)
	capabilities := extractCapabilities(args)

	if !exists {
		out, err := t.api.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(stackName),
			TemplateBody: aws.String(templateBody),
			Parameters:   parameters,
			Capabilities: capabilities,
		})
		if err != nil {
			return "", "", fmt.Errorf("create stack %s: %w", stackName, err)
		}
		return aws.ToString(out.StackId), "CREATE", nil
	}

	out, err := t.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
		Parameters:   parameters,
		Capabilities: capabilities,
	})
	if err != nil {
		if strings.Contains(err.Error(), "No updates are to be performed") {
			return stackName, "UPDATE_NOOP", nil
		}
		return "", "", fmt.Errorf("update stack %s: %w", stackName, err)
	}
	return aws.ToString(out.StackId), "UPDATE", nil
}

func (t *Tool) waitForTerminal(ctx context.Context, stackName, stackID, action string) (string, error) {
	deadline := time.NewTimer(t.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(t.pollInterval)
	defer tick.Stop()

	res := result{
		StackName:  stackName,
		StackID:    stackID,
		LastEvents: []event{},
		Action:     action,
	}

	for {
		desc, err := t.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			StackName: aws.String(stackID),
		})
		if err != nil {
			return "", fmt.Errorf("describe stack %s: %w", stackID, err)
		}
		if len(desc.Stacks) == 0 {
			return "", fmt.Errorf("stack %s not found while polling", stackID)
		}

		stack := desc.Stacks[0]
		res.FinalStackStatus = string(stack.StackStatus)
		res.StatusReason = stack.StackStatusReason
		res.LastEvents = t.recentEvents(ctx, stackID)

		if terminalStatuses[stack.StackStatus] {
			res.Status = "FAILED"
			if strings.HasSuffix(res.FinalStackStatus, "COMPLETE") {
				res.Status = "SUCCESS"
			}
			t.logger.Info("stack deployment finished",
				"stack", stackName, "status", res.FinalStackStatus)
			return marshalResult(res)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			res.Status = "TIMEOUT"
			reason := fmt.Sprintf("Timed out after %s", t.timeout)
			res.StatusReason = &reason
			t.logger.Warn("stack deployment timed out", "stack", stackName)
			return marshalResult(res)
		case <-tick.C:
		}
	}
}

// recentEvents fetches the newest stack events for debugging context. Event
// retrieval failures are logged but never fail the deployment result.
func (t *Tool) recentEvents(ctx context.Context, stackID string) []event {
	out, err := t.api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(stackID),
	})
	if err != nil {
		t.logger.Debug("failed to fetch stack events", "error", err)
		return []event{}
	}

	n := min(len(out.StackEvents), maxReportedEvents)
	events := make([]event, 0, n)
	for _, e := range out.StackEvents[:n] {
		ev := event{
			ResourceType:         aws.ToString(e.ResourceType),
			LogicalResourceID:    aws.ToString(e.LogicalResourceId),
			ResourceStatus:       string(e.ResourceStatus),
			ResourceStatusReason: e.ResourceStatusReason,
		}
		if e.Timestamp != nil {
			ev.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		events = append(events, ev)
	}
	return events
}

func extractParameters(args map[string]any) []types.Parameter {
	raw, ok := args["parameters"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	params := make([]types.Parameter, 0, len(raw))
	for k, v := range raw {
		value, ok := v.(string)
		if !ok {
			value = fmt.Sprint(v)
		}
		params = append(params, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(value),
		})
	}
	return params
}

func extractCapabilities(args map[string]any) []types.Capability {
	raw, ok := args["capabilities"].([]any)
	if !ok {
		return nil
	}
	caps := make([]types.Capability, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			caps = append(caps, types.Capability(s))
		}
	}
	return caps
}

func marshalResult(res result) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshal deploy result: %w", err)
	}
	return string(data), nil
}
