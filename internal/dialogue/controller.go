package dialogue

import (
	"log/slog"

	"github.com/parley-ai/parley/internal/logging"
	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/ports"
	"github.com/parley-ai/parley/pkg/schema"
)

// Graph node names.
const (
	NodeClassify = "classify_intent"
	NodeRecord   = "record_conversation"
	NodeCollect  = "collect_info"
	NodeRespond  = "process_booking"
)

// Router labels.
const (
	routeCollect = "collect_info"
	routeRespond = "process_booking"
	routeEnd     = "end"
)

// Defaults for tunables. The chunk size has no semantic meaning; it only
// shapes streaming granularity.
const (
	DefaultConfidenceThreshold = 0.6
	DefaultChunkSize           = 24
	contextWindow              = 10
)

// Controller owns the dialogue nodes. It is stateless between invocations;
// everything a turn needs travels in the State and Config.
type Controller struct {
	classifier ports.Classifier
	responder  ports.Responder
	log        ports.ConversationLog
	registry   *schema.Registry
	logger     *slog.Logger

	threshold  float64
	chunkSize  int
	onFallback func()
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithResponder sets the free-form response generator. Without one the
// respond node falls back to deterministic localized templates.
func WithResponder(r ports.Responder) ControllerOption {
	return func(c *Controller) { c.responder = r }
}

// WithConversationLog enables the audit-log node. Without one the node is a
// no-op.
func WithConversationLog(log ports.ConversationLog) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// WithRegistry overrides the slot schema registry.
func WithRegistry(r *schema.Registry) ControllerOption {
	return func(c *Controller) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConfidenceThreshold overrides the routing confidence threshold.
func WithConfidenceThreshold(t float64) ControllerOption {
	return func(c *Controller) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// WithChunkSize overrides the streaming chunk size in runes.
func WithChunkSize(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithFallbackObserver registers a callback invoked whenever classification
// falls back, for metrics.
func WithFallbackObserver(fn func()) ControllerOption {
	return func(c *Controller) { c.onFallback = fn }
}

// NewController builds a dialogue controller around the classification port.
func NewController(classifier ports.Classifier, opts ...ControllerOption) *Controller {
	c := &Controller{
		classifier: classifier,
		registry:   schema.Default(),
		logger:     logging.NewNop(),
		threshold:  DefaultConfidenceThreshold,
		chunkSize:  DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildGraph assembles the dialogue topology:
//
//	start ──> classify_intent ──┬─> collect_info ──┬─> process_booking ─> end
//	  │                         │                  └─> end (question asked)
//	  └─> record_conversation ──┘─────────────────────> process_booking
//
// classify_intent and record_conversation run concurrently off the start
// marker; neither emits streaming events, so their interleaving is invisible
// to consumers.
func (c *Controller) BuildGraph(opts ...runtime.Option) (*runtime.Graph, error) {
	b := runtime.NewBuilder()

	if err := b.AddNode(NodeClassify, c.ClassifyIntent); err != nil {
		return nil, err
	}
	if err := b.AddNode(NodeRecord, c.RecordConversation); err != nil {
		return nil, err
	}
	if err := b.AddNode(NodeCollect, c.CollectInfo); err != nil {
		return nil, err
	}
	if err := b.AddNode(NodeRespond, c.Respond); err != nil {
		return nil, err
	}

	if err := b.AddEdge(runtime.Start, NodeClassify); err != nil {
		return nil, err
	}
	if err := b.AddEdge(runtime.Start, NodeRecord); err != nil {
		return nil, err
	}
	if err := b.AddEdge(NodeRecord, runtime.End); err != nil {
		return nil, err
	}
	if err := b.AddConditionalEdge(NodeClassify, c.RouteAfterClassification, map[string]string{
		routeCollect: NodeCollect,
		routeRespond: NodeRespond,
	}); err != nil {
		return nil, err
	}
	if err := b.AddConditionalEdge(NodeCollect, c.RouteAfterCollectInfo, map[string]string{
		routeRespond: NodeRespond,
		routeEnd:     runtime.End,
	}); err != nil {
		return nil, err
	}
	if err := b.AddEdge(NodeRespond, runtime.End); err != nil {
		return nil, err
	}

	return b.Compile(opts...)
}
