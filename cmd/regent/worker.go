package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/apiarylabs/regent/internal/artifact"
	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/internal/coordinator"
	"github.com/apiarylabs/regent/internal/platform"
	"github.com/apiarylabs/regent/pkg/models"
)

// localWorker executes dispatched tasks in-process and reports results back
// to the coordinator. It stands in for the external workers that would
// normally consume the task stream: when a generation backend or platform
// client is configured it calls them, otherwise it simulates completion.
type localWorker struct {
	coord       *coordinator.Coordinator
	objectiveID string
	generator   artifact.Generator
	client      platform.Client
	warnf       func(format string, args ...any)

	mu      sync.Mutex
	claimed map[string]bool
}

// newLocalWorker builds a worker from the configuration. Backend and
// platform collaborators are optional; missing ones are simulated.
func newLocalWorker(cfg *config.Config, coord *coordinator.Coordinator, objectiveID string) *localWorker {
	w := &localWorker{
		coord:       coord,
		objectiveID: objectiveID,
		claimed:     make(map[string]bool),
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
	if cfg.Backend.APIKey != "" || cfg.Backend.UseAWSBedrock {
		gen, err := artifact.NewClaudeGenerator(artifact.ClaudeConfig{
			Model:         anthropicModel(cfg.Backend.Model),
			APIKey:        cfg.Backend.APIKey,
			UseAWSBedrock: cfg.Backend.UseAWSBedrock,
			AWSRegion:     cfg.Backend.AWSRegion,
		})
		if err == nil {
			w.generator = gen
		}
	}
	if cfg.Platform.BaseURL != "" {
		w.client = platform.NewRESTClient(cfg.Platform.BaseURL, cfg.Platform.APIKey)
	}
	return w
}

// run polls for dispatched tasks until the context is cancelled or the
// objective's own context is, whichever comes first.
func (w *localWorker) run(ctx context.Context) {
	octx, err := w.coord.Context(w.objectiveID)
	if err != nil {
		w.warnf("worker for %s: %v", w.objectiveID, err)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(octx, cancel)
	defer stop()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tasks, err := w.coord.Tasks(w.objectiveID)
		if err != nil {
			return
		}
		for _, task := range tasks {
			if task.Status != models.TaskStatusInProgress || !w.claim(task.ID) {
				continue
			}
			go w.execute(ctx, task)
		}
	}
}

func (w *localWorker) claim(taskID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.claimed[taskID] {
		return false
	}
	w.claimed[taskID] = true
	return true
}

// execute runs one task against the configured collaborators and reports
// the outcome.
func (w *localWorker) execute(ctx context.Context, task *models.Task) {
	execErr := w.produce(ctx, task)
	if execErr == nil {
		if err := w.coord.ReportTaskResult(ctx, w.objectiveID, task.ID, nil); err != nil {
			w.warnf("report task %s: %v", task.ID, err)
		}
		return
	}

	// The coordinator decides whether remediation applies; either way the
	// failing task is recorded there.
	if _, err := w.coord.HandleExecutionError(ctx, execErr, coordinator.ErrorContext{
		ObjectiveID:  w.objectiveID,
		AgentID:      task.AssignedTo,
		TaskID:       task.ID,
		Operation:    "create",
		ArtifactType: string(artifactKind(task.Content)),
	}); err != nil {
		w.warnf("handle task %s failure: %v", task.ID, err)
	}
}

// produce generates and persists the task's artifact. With no collaborators
// configured it simulates a short unit of work.
func (w *localWorker) produce(ctx context.Context, task *models.Task) error {
	if w.generator == nil && w.client == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
		return nil
	}

	content := task.Content
	if w.generator != nil {
		art, err := w.generator.Generate(ctx, artifact.Request{
			Kind:        artifactKind(task.Content),
			TaskContent: task.Content,
		})
		if err != nil {
			return fmt.Errorf("generate artifact: %w", err)
		}
		content = art.Content
	}

	if w.client != nil {
		_, err := w.client.CreateRecord(ctx, recordType(task.Content), map[string]any{
			"task_id": task.ID,
			"content": content,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// anthropicModel passes a configured model name through, leaving the SDK
// default in place when unset.
func anthropicModel(name string) anthropic.Model {
	return anthropic.Model(name)
}

// artifactKind picks the artifact kind from the task wording.
func artifactKind(content string) artifact.Kind {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "template") || strings.Contains(lower, "structure"):
		return artifact.KindWidgetTemplate
	case strings.Contains(lower, "css") || strings.Contains(lower, "style"):
		return artifact.KindStylesheet
	case strings.Contains(lower, "client") || strings.Contains(lower, "controller"):
		return artifact.KindClientScript
	case strings.Contains(lower, "server") || strings.Contains(lower, "data script"):
		return artifact.KindServerScript
	case strings.Contains(lower, "workflow") || strings.Contains(lower, "flow"):
		return artifact.KindFlowDefinition
	default:
		return artifact.KindGeneric
	}
}

// recordType maps the artifact kind to a platform record type.
func recordType(content string) string {
	switch artifactKind(content) {
	case artifact.KindWidgetTemplate, artifact.KindStylesheet, artifact.KindClientScript, artifact.KindServerScript:
		return "widget"
	case artifact.KindFlowDefinition:
		return "flow"
	default:
		return "update_set"
	}
}
