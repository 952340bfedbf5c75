package parley

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-ai/parley/internal/dialogue"
	"github.com/parley-ai/parley/internal/logging"
	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/adapters/memory"
	"github.com/parley-ai/parley/pkg/domain"
	"github.com/parley-ai/parley/pkg/ports"
	"github.com/parley-ai/parley/pkg/schema"
	"github.com/parley-ai/parley/pkg/session"
)

// Agent is the high-level entry point for the library. It wraps the graph
// engine and the dialogue controller behind a run/stream surface, serializes
// turns per thread, and owns checkpointing.
type Agent struct {
	graph    *runtime.Graph
	sessions *session.Manager
	log      ports.ConversationLog
	logger   *slog.Logger
	timeout  time.Duration

	// overlay holds states whose checkpoint write failed, so the current
	// process can still resume those threads. Resumability across restarts
	// is degraded until a later save succeeds.
	overlayMu sync.Mutex
	overlay   map[string]*domain.State
}

// Option defines a functional option for configuring the Agent.
type Option func(*config)

type config struct {
	store          ports.CheckpointStore
	log            ports.ConversationLog
	responder      ports.Responder
	registry       *schema.Registry
	locker         ports.DistributedLocker
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	threshold      float64
	chunkSize      int
	timeout        time.Duration
	controllerOpts []dialogue.ControllerOption
}

// WithCheckpointStore sets the checkpoint persistence backend. Defaults to an
// in-memory store.
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(c *config) { c.store = store }
}

// WithConversationLog enables the append-only audit log.
func WithConversationLog(log ports.ConversationLog) Option {
	return func(c *config) { c.log = log }
}

// WithResponder sets the free-form response generator.
func WithResponder(r ports.Responder) Option {
	return func(c *config) { c.responder = r }
}

// WithRegistry overrides the slot schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithLocker enables distributed per-thread locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *config) { c.locker = locker }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithLifecycleHooks registers observability hooks around node execution.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) { c.hooks = hooks }
}

// WithConfidenceThreshold overrides the routing confidence threshold.
func WithConfidenceThreshold(t float64) Option {
	return func(c *config) { c.threshold = t }
}

// WithChunkSize overrides the streaming chunk size in runes.
func WithChunkSize(n int) Option {
	return func(c *config) { c.chunkSize = n }
}

// WithTurnTimeout bounds each turn; blocking port and store calls inherit the
// deadline through the context. Zero means no timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithFallbackObserver registers a callback invoked whenever intent
// classification falls back, for metrics.
func WithFallbackObserver(fn func()) Option {
	return func(c *config) {
		c.controllerOpts = append(c.controllerOpts, dialogue.WithFallbackObserver(fn))
	}
}

// New initializes an Agent around the classification port.
func New(classifier ports.Classifier, opts ...Option) (*Agent, error) {
	cfg := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.NewCheckpointStore()
	}
	if cfg.log == nil {
		cfg.log = memory.NewConversationLog()
	}

	ctrlOpts := []dialogue.ControllerOption{dialogue.WithLogger(cfg.logger)}
	if cfg.responder != nil {
		ctrlOpts = append(ctrlOpts, dialogue.WithResponder(cfg.responder))
	}
	ctrlOpts = append(ctrlOpts, dialogue.WithConversationLog(cfg.log))
	if cfg.registry != nil {
		ctrlOpts = append(ctrlOpts, dialogue.WithRegistry(cfg.registry))
	}
	if cfg.threshold > 0 {
		ctrlOpts = append(ctrlOpts, dialogue.WithConfidenceThreshold(cfg.threshold))
	}
	if cfg.chunkSize > 0 {
		ctrlOpts = append(ctrlOpts, dialogue.WithChunkSize(cfg.chunkSize))
	}

	ctrlOpts = append(ctrlOpts, cfg.controllerOpts...)

	controller := dialogue.NewController(classifier, ctrlOpts...)
	graph, err := controller.BuildGraph(
		runtime.WithLogger(cfg.logger),
		runtime.WithHooks(cfg.hooks),
	)
	if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(cfg.locker))
	}

	return &Agent{
		graph:    graph,
		sessions: session.NewManager(cfg.store, sessionOpts...),
		log:      cfg.log,
		logger:   cfg.logger,
		timeout:  cfg.timeout,
		overlay:  make(map[string]*domain.State),
	}, nil
}

// TurnOption configures a single turn.
type TurnOption func(*turnConfig)

type turnConfig struct {
	threadID  string
	userID    string
	sessionID string
	metadata  map[string]string
}

// WithThread addresses an existing conversation thread. Without it a new
// thread ID is generated.
func WithThread(threadID string) TurnOption {
	return func(c *turnConfig) { c.threadID = threadID }
}

// WithUser tags the turn with a user identity.
func WithUser(userID string) TurnOption {
	return func(c *turnConfig) { c.userID = userID }
}

// WithSession tags the turn with a transport-level session ID for the audit
// log.
func WithSession(sessionID string) TurnOption {
	return func(c *turnConfig) { c.sessionID = sessionID }
}

// WithMetadata attaches free-form metadata to the turn's log entry.
func WithMetadata(md map[string]string) TurnOption {
	return func(c *turnConfig) { c.metadata = md }
}

// Result is the structured outcome of one turn. Run never panics or returns
// a bare error past this boundary; failures arrive as Success=false.
type Result struct {
	Success     bool           `json:"success"`
	ThreadID    string         `json:"thread_id"`
	Intent      domain.Intent  `json:"intent,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Response    string         `json:"response,omitempty"`
	Language    string         `json:"language,omitempty"`
	BookingInfo map[string]any `json:"booking_info,omitempty"`
	Step        domain.Step    `json:"step,omitempty"`
	Action      *domain.Action `json:"action,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Run executes one conversation turn and returns the structured result.
// Turns for the same thread serialize; a concurrent caller queues until the
// in-flight turn finishes.
func (a *Agent) Run(ctx context.Context, userInput string, opts ...TurnOption) *Result {
	tc := a.turnConfig(opts)

	var result *Result
	err := a.sessions.WithLock(ctx, tc.threadID, func(ctx context.Context) error {
		result = a.turn(ctx, userInput, tc, runtime.Config{
			ThreadID:  tc.threadID,
			UserID:    tc.userID,
			SessionID: tc.sessionID,
			Metadata:  tc.metadata,
		}, nil)
		return nil
	})
	if err != nil {
		return &Result{ThreadID: tc.threadID, Error: err.Error()}
	}
	return result
}

// Stream executes one turn, forwarding node events as they are emitted. The
// returned channel is finite and non-restartable: it closes when the turn
// finishes, and the caller drains it or cancels ctx to abandon it. If the
// invocation fails, the last event before close is a terminal error event.
func (a *Agent) Stream(ctx context.Context, userInput string, opts ...TurnOption) <-chan domain.Event {
	tc := a.turnConfig(opts)
	out := make(chan domain.Event)

	go func() {
		defer close(out)
		var result *Result
		err := a.sessions.WithLock(ctx, tc.threadID, func(ctx context.Context) error {
			result = a.turn(ctx, userInput, tc, runtime.Config{
				ThreadID:  tc.threadID,
				UserID:    tc.userID,
				SessionID: tc.sessionID,
				Metadata:  tc.metadata,
			}, out)
			return nil
		})
		if err != nil {
			select {
			case out <- domain.ErrorEvent(err):
			case <-ctx.Done():
			}
			return
		}
		if result != nil && result.Error != "" {
			select {
			case out <- domain.Event{Type: domain.EventError, Message: result.Error}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

// turn runs one locked invocation: load or start the thread, append the user
// message, run the graph, checkpoint, and shape the result. When forward is
// non-nil, node events are relayed to it while the graph runs.
func (a *Agent) turn(ctx context.Context, userInput string, tc turnConfig, cfg runtime.Config, forward chan<- domain.Event) *Result {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	state := a.loadState(ctx, tc)
	state.Apply(domain.Update{Messages: []domain.Message{domain.UserMessage(userInput)}})

	var final *domain.State
	var err error
	if forward != nil {
		var events <-chan domain.Event
		var results <-chan runtime.Result
		events, results = a.graph.Stream(ctx, state, cfg)
		for ev := range events {
			select {
			case forward <- ev:
			case <-ctx.Done():
			}
		}
		res := <-results
		final, err = res.State, res.Err
	} else {
		final, err = a.graph.Invoke(ctx, state, cfg)
	}
	if err != nil {
		// No checkpoint on a failed or cancelled invocation; partial state
		// is discarded.
		a.logger.Error("turn failed", "thread_id", tc.threadID, "err", err)
		return &Result{ThreadID: tc.threadID, Error: err.Error()}
	}

	a.checkpoint(ctx, tc.threadID, final)
	return a.shape(tc.threadID, final)
}

// loadState resolves the thread's starting state: the in-memory overlay from
// a failed save wins over the durable checkpoint, a missing checkpoint means
// a fresh thread.
func (a *Agent) loadState(ctx context.Context, tc turnConfig) *domain.State {
	a.overlayMu.Lock()
	if state, ok := a.overlay[tc.threadID]; ok {
		a.overlayMu.Unlock()
		return state.Clone()
	}
	a.overlayMu.Unlock()

	return a.sessions.LoadOrStart(ctx, tc.threadID, tc.userID)
}

// checkpoint saves the final state, falling back to the in-memory overlay on
// write failure so the turn still completes.
func (a *Agent) checkpoint(ctx context.Context, threadID string, state *domain.State) {
	if err := a.sessions.Save(ctx, threadID, state); err != nil {
		a.logger.Warn("checkpoint save failed, keeping state in memory",
			"thread_id", threadID,
			"err", err,
		)
		a.overlayMu.Lock()
		a.overlay[threadID] = state.Clone()
		a.overlayMu.Unlock()
		return
	}
	a.overlayMu.Lock()
	delete(a.overlay, threadID)
	a.overlayMu.Unlock()
}

func (a *Agent) shape(threadID string, final *domain.State) *Result {
	result := &Result{
		Success:     true,
		ThreadID:    threadID,
		Response:    final.Response,
		Language:    final.Language(),
		BookingInfo: final.Slots,
		Step:        final.Step,
		Action:      final.Action,
	}
	if final.Intent != nil {
		result.Intent = final.Intent.Intent
		result.Confidence = final.Intent.Confidence
	}
	return result
}

func (a *Agent) turnConfig(opts []TurnOption) turnConfig {
	var tc turnConfig
	for _, opt := range opts {
		opt(&tc)
	}
	if tc.threadID == "" {
		tc.threadID = uuid.NewString()
	}
	if tc.userID == "" {
		tc.userID = "anonymous"
	}
	return tc
}

// Graph exposes the compiled topology for introspection tools.
func (a *Agent) Graph() *runtime.Graph {
	return a.graph
}

// Checkpoints returns the checkpoint store, for administrative operations.
func (a *Agent) Checkpoints() ports.CheckpointStore {
	return a.sessions.Store()
}

// Log returns the conversation log, for administrative operations.
func (a *Agent) Log() ports.ConversationLog {
	return a.log
}

// DeleteThread removes a thread's checkpoint and its conversation entries.
func (a *Agent) DeleteThread(ctx context.Context, threadID string) error {
	a.overlayMu.Lock()
	delete(a.overlay, threadID)
	a.overlayMu.Unlock()

	if err := a.sessions.Delete(ctx, threadID); err != nil {
		return err
	}
	return a.log.Delete(ctx, threadID)
}
