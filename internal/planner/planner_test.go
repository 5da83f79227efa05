package planner

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

func buildGraph(t *testing.T, tasks []*models.Task) *taskgraph.Graph {
	t.Helper()
	g := taskgraph.New("obj-1")
	if err := g.Build(tasks); err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func pendingTask(id, content string, deps ...string) *models.Task {
	return &models.Task{
		ID:          id,
		ObjectiveID: "obj-1",
		Content:     content,
		Status:      models.TaskStatusPending,
		Priority:    models.PriorityMedium,
		DependsOn:   deps,
	}
}

var widgetRoster = []models.Role{models.RoleWidgetBuilder, models.RoleScripter, models.RoleStylist}

func TestPlanParallelWaves(t *testing.T) {
	g := buildGraph(t, []*models.Task{
		pendingTask("t1", "Create widget template structure"),
		pendingTask("t2", "Implement client controller script"),
		pendingTask("t3", "Add CSS styling"),
	})
	analysis := &models.TaskAnalysis{Type: models.TypeInteractiveComponent, RequiredCapabilities: widgetRoster}

	plan := New(2).Plan(g, analysis, 0)

	if !plan.Parallel {
		t.Fatal("expected a parallel plan for three independent roles")
	}
	if len(plan.Waves) != 2 {
		t.Fatalf("expected 2 waves with cap 2, got %d", len(plan.Waves))
	}
	if len(plan.Waves[0].Slots) != 2 || len(plan.Waves[1].Slots) != 1 {
		t.Errorf("expected slot counts [2 1], got [%d %d]",
			len(plan.Waves[0].Slots), len(plan.Waves[1].Slots))
	}
	if plan.TaskCount() != 3 {
		t.Errorf("expected all 3 tasks planned, got %d", plan.TaskCount())
	}
}

func TestPlanFirstWaveRespectsActiveAgents(t *testing.T) {
	g := buildGraph(t, []*models.Task{
		pendingTask("t1", "Create widget template structure"),
		pendingTask("t2", "Implement client controller script"),
		pendingTask("t3", "Add CSS styling"),
	})
	analysis := &models.TaskAnalysis{Type: models.TypeInteractiveComponent, RequiredCapabilities: widgetRoster}

	// Two of three slots are already spoken for by active agents.
	plan := New(3).Plan(g, analysis, 2)

	if len(plan.Waves) == 0 {
		t.Fatal("expected at least one wave")
	}
	if len(plan.Waves[0].Slots) != 1 {
		t.Errorf("expected first wave narrowed to 1 slot, got %d", len(plan.Waves[0].Slots))
	}
}

func TestPlanSequentialFallback(t *testing.T) {
	// A pure chain has a single-task frontier, so fewer than two independent
	// roles are found and the plan falls back to sequential spawning.
	g := buildGraph(t, []*models.Task{
		pendingTask("t1", "Create widget template structure"),
		pendingTask("t2", "Implement client controller script", "t1"),
		pendingTask("t3", "Add CSS styling", "t1"),
	})
	analysis := &models.TaskAnalysis{Type: models.TypeInteractiveComponent, RequiredCapabilities: widgetRoster}

	plan := New(4).Plan(g, analysis, 0)

	if plan.Parallel {
		t.Fatal("expected sequential fallback")
	}
	// One wave per roster role that matched anything, in roster order.
	if len(plan.Waves) == 0 {
		t.Fatal("expected waves in sequential plan")
	}
	if plan.Waves[0].Slots[0].Role != models.RoleWidgetBuilder {
		t.Errorf("expected roster order, first role %s", plan.Waves[0].Slots[0].Role)
	}
	for i, wave := range plan.Waves {
		if len(wave.Slots) != 1 {
			t.Errorf("wave %d: sequential waves carry one slot, got %d", i, len(wave.Slots))
		}
	}
}

func TestPlanSkipsCompletedTasks(t *testing.T) {
	g := buildGraph(t, []*models.Task{
		pendingTask("t1", "Create widget template structure"),
		pendingTask("t2", "Implement client controller script", "t1"),
	})
	if err := g.Transition("t1", models.TaskStatusInProgress); err != nil {
		t.Fatal(err)
	}
	if err := g.Transition("t1", models.TaskStatusCompleted); err != nil {
		t.Fatal(err)
	}
	analysis := &models.TaskAnalysis{Type: models.TypeInteractiveComponent, RequiredCapabilities: widgetRoster}

	plan := New(4).Plan(g, analysis, 0)

	for _, wave := range plan.Waves {
		for _, slot := range wave.Slots {
			for _, id := range slot.TaskIDs {
				if id == "t1" {
					t.Error("completed task planned again")
				}
			}
		}
	}
	if plan.TaskCount() != 1 {
		t.Errorf("expected only the pending task planned, got %d", plan.TaskCount())
	}
}

// Randomized graphs: waves never exceed the cap and never violate the
// dependency DAG in the simulated sense.
func TestPlanCapacityAndOrderingFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	contents := []string{
		"Create widget template structure",
		"Implement client controller script",
		"Add CSS styling and layout",
		"Implement server data script",
		"Test widget rendering",
	}
	roster := []models.Role{models.RoleWidgetBuilder, models.RoleScripter, models.RoleStylist, models.RoleTester}

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(8)
		tasks := make([]*models.Task, n)
		for i := 0; i < n; i++ {
			task := pendingTask(fmt.Sprintf("t%d", i), contents[rng.Intn(len(contents))])
			for j := 0; j < i; j++ {
				if rng.Float64() < 0.25 {
					task.DependsOn = append(task.DependsOn, fmt.Sprintf("t%d", j))
				}
			}
			tasks[i] = task
		}
		g := buildGraph(t, tasks)
		cap := 1 + rng.Intn(4)

		plan := New(cap).Plan(g, &models.TaskAnalysis{RequiredCapabilities: roster}, 0)

		planned := make(map[string]int) // task id -> wave index
		for i, wave := range plan.Waves {
			if len(wave.Slots) > cap {
				t.Fatalf("trial %d: wave %d has %d slots, cap %d", trial, i, len(wave.Slots), cap)
			}
			for _, slot := range wave.Slots {
				for _, id := range slot.TaskIDs {
					if prev, dup := planned[id]; dup {
						t.Fatalf("trial %d: task %s planned twice (waves %d and %d)", trial, id, prev, i)
					}
					planned[id] = i
				}
			}
		}

		if plan.Parallel {
			for id, wave := range planned {
				for _, depID := range g.Dependencies(id) {
					depWave, ok := planned[depID]
					if !ok {
						t.Fatalf("trial %d: task %s planned before unplanned dependency %s", trial, id, depID)
					}
					if depWave >= wave {
						t.Fatalf("trial %d: task %s in wave %d not after dependency %s in wave %d",
							trial, id, wave, depID, depWave)
					}
				}
			}
		}
	}
}
