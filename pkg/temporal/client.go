package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string `yaml:"hostPort"`
	Namespace string `yaml:"namespace"`
	Identity  string `yaml:"identity"`
	TaskQueue string `yaml:"taskQueue"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "fbs-supply-worker",
		TaskQueue: TaskQueues.Supply,
	}
}

// TaskQueues contains the task queue names used by the supply service
var TaskQueues = struct {
	Supply string
}{
	Supply: "fbs-supply-queue",
}

// WorkflowNames contains the registered workflow names
var WorkflowNames = struct {
	BatchCompleted string
}{
	BatchCompleted: "BatchCompletedWorkflow",
}

// ActivityNames contains the registered activity names
var ActivityNames = struct {
	OpenSupply       string
	AllocatePackages string
}{
	OpenSupply:       "OpenSupply",
	AllocatePackages: "AllocatePackages",
}

// Client wraps the Temporal client
type Client struct {
	client client.Client
	config *Config
}

// NewClient creates a new Temporal client
func NewClient(_ context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		options.Logger = log.NewStructuredLogger(logger)
	}

	c, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		client: c,
		config: config,
	}, nil
}

// Client returns the underlying Temporal client
func (c *Client) Client() client.Client {
	return c.client
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}

// StartWorkflow starts a workflow execution. Starting a workflow whose id is
// already running returns the existing run.
func (c *Client) StartWorkflow(
	ctx context.Context,
	workflowID string,
	workflowName string,
	args ...interface{},
) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.config.TaskQueue,
	}

	return c.client.ExecuteWorkflow(ctx, options, workflowName, args...)
}

// WorkerOptions contains options for creating a worker
type WorkerOptions struct {
	TaskQueue                    string
	MaxConcurrentActivityPollers int
	MaxConcurrentWorkflowPollers int
	MaxConcurrentActivities      int
	MaxConcurrentWorkflows       int
}

// DefaultWorkerOptions returns default worker options
func DefaultWorkerOptions(taskQueue string) *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:                    taskQueue,
		MaxConcurrentActivityPollers: 4,
		MaxConcurrentWorkflowPollers: 4,
		MaxConcurrentActivities:      50,
		MaxConcurrentWorkflows:       50,
	}
}

// NewWorker creates a new Temporal worker
func (c *Client) NewWorker(opts *WorkerOptions) worker.Worker {
	workerOpts := worker.Options{
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
		MaxConcurrentActivityTaskPollers:       opts.MaxConcurrentActivityPollers,
		MaxConcurrentWorkflowTaskPollers:       opts.MaxConcurrentWorkflowPollers,
	}

	return worker.New(c.client, opts.TaskQueue, workerOpts)
}

// ActivityOptions represents activity execution options
type ActivityOptions struct {
	StartToCloseTimeout time.Duration
	RetryPolicy         RetryPolicy
}

// RetryPolicy represents a retry policy for activities
type RetryPolicy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int32
}

// DefaultActivityOptions returns default activity options
func DefaultActivityOptions() ActivityOptions {
	return ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
}

// ToTemporal converts the policy to the SDK representation
func (p RetryPolicy) ToTemporal() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:    p.InitialInterval,
		BackoffCoefficient: p.BackoffCoefficient,
		MaximumInterval:    p.MaximumInterval,
		MaximumAttempts:    p.MaximumAttempts,
	}
}
