package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/apiarylabs/regent/internal/analyzer"
	"github.com/apiarylabs/regent/internal/decision"
	"github.com/apiarylabs/regent/internal/memory"
	"github.com/apiarylabs/regent/internal/planner"
	"github.com/apiarylabs/regent/internal/platform"
	"github.com/apiarylabs/regent/internal/progress"
	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

// Options configures a Coordinator.
type Options struct {
	// MaxConcurrentAgents caps concurrently active agents per objective.
	MaxConcurrentAgents int
	// AutoSpawn spawns agents immediately after a successful analysis.
	AutoSpawn bool
	// StaleThreshold is how long an in_progress task may sit before it is
	// reported as stale. Reaping kicks in at twice this threshold.
	StaleThreshold time.Duration
	// EventBufferSize is the emitter channel capacity.
	EventBufferSize int
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrentAgents <= 0 {
		o.MaxConcurrentAgents = 4
	}
	if o.StaleThreshold <= 0 {
		o.StaleThreshold = progress.DefaultStaleThreshold
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 256
	}
	return o
}

// objectiveState is the per-objective bundle: everything the coordinator
// owns for one objective lives here instead of in coordinator-wide maps, so
// concurrent objectives never share graph state.
type objectiveState struct {
	objective  *models.Objective
	analysis   *models.TaskAnalysis
	graph      *taskgraph.Graph
	agents     map[string]*models.Agent
	spawnOrder []models.Role
	plan       *models.ExecutionPlan
	state      models.ObjectiveState
	startedAt  time.Time

	// ctx is cancelled by CancelObjective and Shutdown. External workers tie
	// their task execution to it through Coordinator.Context.
	ctx    context.Context
	cancel context.CancelFunc

	// lastChosen is the most recent remediation option chosen while stalled;
	// it moves to failedOptions if the objective stalls again.
	lastChosen    string
	failedOptions []string
}

func (st *objectiveState) activeAgents() int {
	n := 0
	for _, a := range st.agents {
		if a.Status == models.AgentStatusActive {
			n++
		}
	}
	return n
}

// Coordinator is the top-level façade. It owns the objective lifecycle,
// emits lifecycle events, and reacts to externally reported errors. All
// operations run to completion under one lock; agents are bookkeeping
// entities and task execution happens in external workers that report back
// through ReportTaskResult and HandleExecutionError.
type Coordinator struct {
	mu sync.Mutex

	store    memory.Store
	analyzer *analyzer.Analyzer
	builder  *taskgraph.Builder
	planner  *planner.Planner
	monitor  *progress.Monitor
	engine   *decision.Engine
	emitter  *EventEmitter
	logger   *DebugLogger
	opts     Options

	objectives map[string]*objectiveState
}

// New creates a Coordinator over the given store. The store backs the
// analyzer's pattern hints, the decision engine's history, and graph
// persistence. A nil templates set falls back to the built-in templates; a
// nil logger disables debug logging.
func New(store memory.Store, templates *taskgraph.TemplateSet, opts Options, logger *DebugLogger) *Coordinator {
	opts = opts.withDefaults()
	if logger == nil {
		logger = NopLogger()
	}
	setPackageLogger(logger)

	return &Coordinator{
		store:      store,
		analyzer:   analyzer.New(store),
		builder:    taskgraph.NewBuilder(templates),
		planner:    planner.New(opts.MaxConcurrentAgents),
		monitor:    progress.New(opts.StaleThreshold),
		engine:     decision.New(store),
		emitter:    NewEventEmitter(opts.EventBufferSize),
		logger:     logger,
		opts:       opts,
		objectives: make(map[string]*objectiveState),
	}
}

// Events returns the lifecycle event stream. Events are observable only;
// no caller is required to drain them.
func (c *Coordinator) Events() <-chan Event {
	return c.emitter.Events()
}

// AnalyzeObjective classifies the objective, builds and persists its task
// graph, and registers the objective with the coordinator. Returns a
// ValidationError for malformed objectives; the objective never enters the
// analyzed state in that case. In auto-spawn mode agents are spawned
// immediately after analysis.
func (c *Coordinator) AnalyzeObjective(ctx context.Context, obj *models.Objective) (*models.TaskAnalysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if obj == nil {
		return nil, &ValidationError{Detail: "objective is nil"}
	}
	if obj.ID == "" {
		return nil, &ValidationError{Field: "id", Detail: "objective id is required"}
	}
	if strings.TrimSpace(obj.Description) == "" {
		return nil, &ValidationError{Field: "description", Detail: "objective description is required"}
	}
	if obj.Priority == "" {
		obj.Priority = models.PriorityMedium
	}
	if !obj.Priority.Valid() {
		return nil, &ValidationError{Field: "priority", Detail: fmt.Sprintf("unknown priority %q", obj.Priority)}
	}
	if _, exists := c.objectives[obj.ID]; exists {
		return nil, &ValidationError{Field: "id", Detail: fmt.Sprintf("objective %s is already tracked", obj.ID)}
	}
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now()
	}

	c.emit(Event{Type: EventObjectiveAnalyzing, ObjectiveID: obj.ID, Message: obj.Description})
	c.logger.Log("analyzing objective %s: %s", obj.ID, obj.Description)

	analysis := c.analyzer.Analyze(ctx, obj)

	graph, err := c.builder.Build(obj, analysis)
	if err != nil {
		verr := &ValidationError{Field: "tasks", Detail: "task graph construction failed", Err: err}
		c.emit(Event{Type: EventObjectiveError, ObjectiveID: obj.ID, Error: verr})
		return nil, verr
	}

	if err := c.persistObjective(ctx, obj.ID, analysis, graph); err != nil {
		return nil, c.coordinationError(ctx, obj.ID, "analyze", err)
	}

	octx, cancel := context.WithCancel(context.Background())
	st := &objectiveState{
		objective: obj,
		analysis:  analysis,
		graph:     graph,
		agents:    make(map[string]*models.Agent),
		state:     models.StateGraphBuilt,
		startedAt: time.Now(),
		ctx:       octx,
		cancel:    cancel,
	}
	c.objectives[obj.ID] = st

	c.emit(Event{Type: EventObjectiveAnalyzed, ObjectiveID: obj.ID,
		Message: fmt.Sprintf("type=%s complexity=%d tasks=%d", analysis.Type, analysis.EstimatedComplexity, graph.Size())})
	c.logger.Log("objective %s analyzed: type=%s tasks=%d", obj.ID, analysis.Type, graph.Size())

	if c.opts.AutoSpawn {
		if _, err := c.spawnLocked(ctx, st); err != nil {
			return nil, err
		}
	}
	return analysis, nil
}

// SpawnAgents plans execution for the objective and spawns agents for the
// first wave, then assigns ready tasks to them. Requires a prior successful
// AnalyzeObjective call; fails with NotFoundError otherwise. The count of
// active agents for one objective never exceeds MaxConcurrentAgents.
func (c *Coordinator) SpawnAgents(ctx context.Context, objectiveID string) ([]*models.Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	return c.spawnLocked(ctx, st)
}

func (c *Coordinator) spawnLocked(ctx context.Context, st *objectiveState) ([]*models.Agent, error) {
	if st.graph == nil {
		return nil, c.coordinationError(ctx, st.objective.ID, "spawn", errors.New("task graph missing"))
	}
	st.state = models.StateSpawning

	active := st.activeAgents()
	plan := c.planner.Plan(st.graph, st.analysis, active)
	st.plan = plan

	budget := c.opts.MaxConcurrentAgents - active
	var spawned []*models.Agent
	for _, role := range firstWaveRoles(plan) {
		if budget <= 0 {
			break
		}
		if st.hasActiveRole(role) {
			continue
		}
		agent := &models.Agent{
			ID:           fmt.Sprintf("agent-%s-%s", role, uuid.New().String()[:8]),
			ObjectiveID:  st.objective.ID,
			Role:         role,
			Status:       models.AgentStatusActive,
			Capabilities: role.Capabilities(),
			StartedAt:    time.Now(),
		}
		st.agents[agent.ID] = agent
		st.spawnOrder = append(st.spawnOrder, role)
		budget--
		spawned = append(spawned, agent)
		c.emit(Event{Type: EventAgentSpawned, ObjectiveID: st.objective.ID, AgentID: agent.ID,
			Message: string(role)})
		c.logger.Log("spawned %s for objective %s", agent.ID, st.objective.ID)
	}

	assignments := assignTasks(st.graph, st.agents)
	if len(assignments) > 0 {
		c.emit(Event{Type: EventTasksAssigned, ObjectiveID: st.objective.ID,
			Message: fmt.Sprintf("%d task(s) assigned", len(assignments))})
	}
	c.dispatchReady(st)

	st.state = models.StateMonitoring
	return spawned, nil
}

// firstWaveRoles returns the roles of the plan's first wave, in slot order.
func firstWaveRoles(plan *models.ExecutionPlan) []models.Role {
	if plan == nil || len(plan.Waves) == 0 {
		return nil
	}
	roles := make([]models.Role, 0, len(plan.Waves[0].Slots))
	for _, slot := range plan.Waves[0].Slots {
		roles = append(roles, slot.Role)
	}
	return roles
}

func (st *objectiveState) hasActiveRole(role models.Role) bool {
	for _, a := range st.agents {
		if a.Role == role && a.Status == models.AgentStatusActive {
			return true
		}
	}
	return false
}

// dispatchReady moves assigned ready-frontier tasks to in_progress. External
// workers pick these up and report back through ReportTaskResult.
func (c *Coordinator) dispatchReady(st *objectiveState) {
	for _, task := range st.graph.ReadyFrontier() {
		if st.graph.AssignedAgent(task.ID) == "" {
			continue
		}
		if err := st.graph.Transition(task.ID, models.TaskStatusInProgress); err != nil {
			debugLog("dispatch %s: %v", task.ID, err)
			continue
		}
		c.emit(Event{Type: EventTaskUpdated, ObjectiveID: st.objective.ID, TaskID: task.ID,
			AgentID: task.AssignedTo, Message: string(models.TaskStatusInProgress)})
	}
}

// MonitorProgress aggregates task completion into overall and per-agent
// percentages plus blocking issues. Idempotent: two calls without an
// intervening state change return identical figures.
func (c *Coordinator) MonitorProgress(ctx context.Context, objectiveID string) (*progress.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}

	report := c.monitor.Report(st.graph, st.startedAt)
	c.emit(Event{Type: EventProgressUpdated, ObjectiveID: objectiveID, Progress: report.Overall})
	return report, nil
}

// ReportTaskResult records the outcome of an externally executed task.
// A nil taskErr completes the task; otherwise the task is marked failed with
// the error recorded, surfaced as a blocking issue, and never silently
// retried. Completion of the last task finishes the objective and appends a
// pattern to the store.
func (c *Coordinator) ReportTaskResult(ctx context.Context, objectiveID, taskID string, taskErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	task := st.graph.Task(taskID)
	if task == nil {
		return &NotFoundError{Kind: "task", ID: taskID}
	}

	if taskErr != nil {
		if err := st.graph.Transition(taskID, models.TaskStatusFailed); err != nil {
			return c.coordinationError(ctx, objectiveID, "report", err)
		}
		task.Error = taskErr.Error()
		if agent := st.agents[task.AssignedTo]; agent != nil {
			agent.Status = models.AgentStatusFailed
		}
		c.emit(Event{Type: EventTaskUpdated, ObjectiveID: objectiveID, TaskID: taskID,
			Message: string(models.TaskStatusFailed), Error: taskErr})
		c.logger.Log("task %s failed: %v", taskID, taskErr)
		c.checkStalled(st)
		return nil
	}

	if err := st.graph.Transition(taskID, models.TaskStatusCompleted); err != nil {
		return c.coordinationError(ctx, objectiveID, "report", err)
	}
	c.emit(Event{Type: EventTaskUpdated, ObjectiveID: objectiveID, TaskID: taskID,
		Message: string(models.TaskStatusCompleted)})

	if st.graph.Complete() {
		st.state = models.StateCompleted
		c.retireAgents(st)
		c.capturePattern(ctx, st)
		if err := c.persistObjective(ctx, objectiveID, st.analysis, st.graph); err != nil {
			debugLog("persist completed objective %s: %v", objectiveID, err)
		}
		c.emit(Event{Type: EventObjectiveCompleted, ObjectiveID: objectiveID})
		c.logger.Log("objective %s completed", objectiveID)
		return nil
	}

	// Newly unblocked tasks may now be assignable.
	assignTasks(st.graph, st.agents)
	c.dispatchReady(st)
	c.checkStalled(st)
	return nil
}

// checkStalled marks the objective stalled when nothing is running and
// nothing can start. A remediation option that was chosen since the last
// stall is recorded as failed.
func (c *Coordinator) checkStalled(st *objectiveState) {
	if st.state == models.StateCompleted || st.graph.Complete() {
		return
	}
	if st.graph.CountByStatus(models.TaskStatusInProgress) > 0 {
		return
	}
	if len(st.graph.ReadyFrontier()) > 0 {
		// Work is available; it may just be unassigned. The monitor reports
		// that as a blocking issue rather than a stall.
		return
	}
	if st.state == models.StateStalled {
		return
	}
	st.state = models.StateStalled
	if st.lastChosen != "" {
		st.failedOptions = append(st.failedOptions, st.lastChosen)
		st.lastChosen = ""
	}
	c.emit(Event{Type: EventObjectiveStalled, ObjectiveID: st.objective.ID})
	c.logger.Log("objective %s stalled", st.objective.ID)
}

func (c *Coordinator) retireAgents(st *objectiveState) {
	for _, agent := range st.agents {
		if agent.Status == models.AgentStatusActive || agent.Status == models.AgentStatusIdle {
			agent.Status = models.AgentStatusCompleted
		}
	}
}

// HandleExecutionError reacts to a failure reported by an external worker.
// Permission failures get automatic remediation: high-priority manual-action
// and retry tasks are inserted at the head of the pending queue and true is
// returned (retry advised). For anything else the failed task is recorded,
// a manual-intervention event fires, and false is returned.
func (c *Coordinator) HandleExecutionError(ctx context.Context, execErr error, errCtx ErrorContext) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[errCtx.ObjectiveID]
	if !ok {
		return false, &NotFoundError{Kind: "objective", ID: errCtx.ObjectiveID}
	}

	var pd *platform.PermissionDeniedError
	if errors.As(execErr, &pd) {
		tasks := permissionRemediationTasks(errCtx, pd.Operation, pd.Resource)
		if err := st.graph.InsertFront(tasks); err != nil {
			return false, c.coordinationError(ctx, errCtx.ObjectiveID, "remediate", err)
		}
		c.failReportedTask(st, errCtx, execErr)
		assignTasks(st.graph, st.agents)
		c.dispatchReady(st)
		st.state = models.StateMonitoring
		c.emit(Event{Type: EventTasksAssigned, ObjectiveID: errCtx.ObjectiveID,
			Message: fmt.Sprintf("%d remediation task(s) injected for %s on %s", len(tasks), pd.Operation, pd.Resource)})
		c.logger.Log("permission failure on %s/%s: injected %d remediation tasks", pd.Operation, pd.Resource, len(tasks))
		return true, nil
	}

	c.failReportedTask(st, errCtx, execErr)
	c.emit(Event{Type: EventManualInterventionRequired, ObjectiveID: errCtx.ObjectiveID,
		TaskID: errCtx.TaskID, AgentID: errCtx.AgentID, Error: execErr,
		Message: fmt.Sprintf("no automatic remediation for %s failure", errCtx.Operation)})
	c.checkStalled(st)
	return false, nil
}

// failReportedTask marks the failing task, when the context names one.
func (c *Coordinator) failReportedTask(st *objectiveState, errCtx ErrorContext, execErr error) {
	if errCtx.TaskID == "" {
		return
	}
	task := st.graph.Task(errCtx.TaskID)
	if task == nil || task.Status != models.TaskStatusInProgress {
		return
	}
	if err := st.graph.Transition(errCtx.TaskID, models.TaskStatusFailed); err != nil {
		debugLog("fail %s: %v", errCtx.TaskID, err)
		return
	}
	task.Error = execErr.Error()
	c.emit(Event{Type: EventTaskUpdated, ObjectiveID: st.objective.ID, TaskID: errCtx.TaskID,
		Message: string(models.TaskStatusFailed), Error: execErr})
}

// MakeDecision scores the options against historical patterns and the
// objective context. A remediation option chosen for a stalled objective
// re-enters the spawning state.
func (c *Coordinator) MakeDecision(ctx context.Context, objectiveID string, options []string) (*models.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}

	d, err := c.engine.Decide(ctx, decision.Request{
		Objective: st.objective.Description,
		State: decision.State{
			Phase:            st.state,
			PreviouslyFailed: st.failedOptions,
		},
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("decide for objective %s: %w", objectiveID, err)
	}

	c.emit(Event{Type: EventDecisionMade, ObjectiveID: objectiveID,
		Message: fmt.Sprintf("%s (confidence %.2f)", d.Chosen, d.Confidence)})
	c.logger.Log("decision for %s: %s (%.2f)", objectiveID, d.Chosen, d.Confidence)

	if st.state == models.StateStalled && remediationOptions[d.Chosen] {
		st.lastChosen = d.Chosen
		st.state = models.StateSpawning
		if _, err := c.spawnLocked(ctx, st); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ReapStale converts in_progress tasks older than twice the staleness
// threshold to failed and unassigns them so they surface for reassignment.
// Returns the IDs of reaped tasks.
func (c *Coordinator) ReapStale(ctx context.Context, objectiveID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}

	var reaped []string
	for _, task := range c.monitor.Stale(st.graph, 2*c.opts.StaleThreshold) {
		if err := st.graph.Transition(task.ID, models.TaskStatusFailed); err != nil {
			debugLog("reap %s: %v", task.ID, err)
			continue
		}
		task.Error = fmt.Sprintf("stale: in progress longer than %s", 2*c.opts.StaleThreshold)
		st.graph.Unassign(task.ID)
		reaped = append(reaped, task.ID)
		c.emit(Event{Type: EventTaskUpdated, ObjectiveID: objectiveID, TaskID: task.ID,
			Message: string(models.TaskStatusFailed) + " (stale)"})
		c.logger.Log("reaped stale task %s", task.ID)
	}
	if len(reaped) > 0 {
		c.checkStalled(st)
	}
	return reaped, nil
}

// CancelObjective triggers the objective's cancellation token, marks all
// non-terminal tasks cancelled, retires its agents, and drops the objective
// from the arena. Later lookups return NotFoundError.
func (c *Coordinator) CancelObjective(ctx context.Context, objectiveID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return &NotFoundError{Kind: "objective", ID: objectiveID}
	}

	st.cancel()
	for _, task := range st.graph.Tasks() {
		if task.Status.Terminal() {
			continue
		}
		if err := st.graph.Transition(task.ID, models.TaskStatusCancelled); err != nil {
			debugLog("cancel %s: %v", task.ID, err)
		}
	}
	c.retireAgents(st)
	if err := c.persistObjective(ctx, objectiveID, st.analysis, st.graph); err != nil {
		debugLog("persist cancelled objective %s: %v", objectiveID, err)
	}
	delete(c.objectives, objectiveID)

	c.emit(Event{Type: EventObjectiveCancelled, ObjectiveID: objectiveID})
	c.logger.Log("objective %s cancelled", objectiveID)
	return nil
}

// Agents returns detached copies of the objective's agents sorted by ID.
// The live records stay coordinator-internal, so callers may read the copies
// from any goroutine.
func (c *Coordinator) Agents(objectiveID string) ([]*models.Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	agents := make([]*models.Agent, 0, len(st.agents))
	for _, a := range st.agents {
		agents = append(agents, a.Clone())
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

// Context returns a context that is cancelled when the objective is cancelled
// or the coordinator shuts down. External workers derive their task execution
// contexts from it so CancelObjective actually stops in-flight work.
func (c *Coordinator) Context(objectiveID string) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	return st.ctx, nil
}

// State returns the objective's lifecycle state.
func (c *Coordinator) State(objectiveID string) (models.ObjectiveState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return "", &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	return st.state, nil
}

// Tasks returns detached copies of the objective's tasks in graph order.
// Only the coordinator touches the live task records; workers and views poll
// these snapshots without racing the graph's state transitions.
func (c *Coordinator) Tasks(objectiveID string) ([]*models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	return st.graph.Snapshot(), nil
}

// Plan returns the most recently computed execution plan, or nil when
// spawning has not been requested yet.
func (c *Coordinator) Plan(objectiveID string) (*models.ExecutionPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.objectives[objectiveID]
	if !ok {
		return nil, &NotFoundError{Kind: "objective", ID: objectiveID}
	}
	return st.plan, nil
}

// Shutdown persists every tracked objective's final graph snapshot, cancels
// their contexts, and closes the event stream.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for id, st := range c.objectives {
		id, st := id, st
		st.cancel()
		g.Go(func() error {
			return c.persistObjective(gctx, id, st.analysis, st.graph)
		})
	}
	err := g.Wait()

	c.emit(Event{Type: EventShutdown})
	c.emitter.Close()
	setPackageLogger(nil)
	c.logger.Close()
	c.objectives = make(map[string]*objectiveState)
	if err != nil {
		return fmt.Errorf("shutdown persistence: %w", err)
	}
	return nil
}

// capturePattern appends the objective's outcome to the pattern store. Store
// failures are logged, not surfaced: pattern capture is best-effort history.
func (c *Coordinator) capturePattern(ctx context.Context, st *objectiveState) {
	total := st.graph.Size()
	if total == 0 {
		return
	}
	completed := st.graph.CountByStatus(models.TaskStatusCompleted)

	var sum time.Duration
	var counted int
	for _, task := range st.graph.Tasks() {
		if task.StartedAt != nil && task.CompletedAt != nil {
			sum += task.CompletedAt.Sub(*task.StartedAt)
			counted++
		}
	}
	var avg time.Duration
	if counted > 0 {
		avg = sum / time.Duration(counted)
	}

	p := &models.Pattern{
		ID:            uuid.New().String()[:8],
		TaskType:      st.analysis.Type,
		AgentSequence: append([]models.Role(nil), st.spawnOrder...),
		SuccessRate:   float64(completed) / float64(total),
		AvgDuration:   avg,
		LastUsed:      time.Now(),
	}
	if err := c.store.AppendPattern(ctx, p); err != nil {
		debugLog("append pattern for %s: %v", st.objective.ID, err)
	}
}

// persistObjective writes the analysis and task snapshot keyed by objective
// id, per the store's atomic-put contract.
func (c *Coordinator) persistObjective(ctx context.Context, objectiveID string, analysis *models.TaskAnalysis, g *taskgraph.Graph) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := c.store.Put(ctx, fmt.Sprintf("objective:%s:analysis", objectiveID), analysisJSON); err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}

	tasksJSON, err := json.Marshal(g.Tasks())
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := c.store.Put(ctx, fmt.Sprintf("objective:%s:tasks", objectiveID), tasksJSON); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

// coordinationError logs an internal invariant violation to the store for
// learning, emits the matching event, and returns the typed error.
func (c *Coordinator) coordinationError(ctx context.Context, objectiveID, op string, err error) error {
	cerr := &CoordinationError{ObjectiveID: objectiveID, Op: op, Err: err}
	key := fmt.Sprintf("coordination-error:%s:%d", objectiveID, time.Now().UnixNano())
	if perr := c.store.Put(ctx, key, []byte(cerr.Error())); perr != nil {
		debugLog("record coordination error: %v", perr)
	}
	c.emit(Event{Type: EventCoordinationError, ObjectiveID: objectiveID, Error: cerr})
	c.logger.Log("%v", cerr)
	return cerr
}

func (c *Coordinator) emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	c.emitter.Emit(event)
}
