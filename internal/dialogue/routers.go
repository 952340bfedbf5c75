package dialogue

import "github.com/parley-ai/parley/pkg/domain"

// RouteAfterClassification decides whether the turn enters slot collection.
// Collection happens only for slot-filling intents classified with enough
// confidence, while required fields are still missing and collection has not
// already completed. Everything else, including the low-confidence path,
// goes to the free-form response generator rather than a clarifying slot
// question.
func (c *Controller) RouteAfterClassification(state *domain.State) string {
	if state.Intent == nil || !state.Intent.Intent.SlotFilling() {
		return routeRespond
	}
	if state.Intent.Confidence < c.threshold {
		return routeRespond
	}
	if state.Step == domain.StepComplete {
		return routeRespond
	}
	if len(c.registry.Missing(state.Intent.Intent, state.Slots)) == 0 {
		return routeRespond
	}
	return routeCollect
}

// RouteAfterCollectInfo ends the turn when a question was just asked (the
// next user turn answers it); otherwise collection is complete and the turn
// proceeds to response generation.
func (c *Controller) RouteAfterCollectInfo(state *domain.State) string {
	if state.Step == domain.StepCollecting {
		return routeEnd
	}
	return routeRespond
}
