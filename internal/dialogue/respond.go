package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/domain"
)

// Respond generates the turn's final free-form response. The configured
// Responder is tried first; on failure or absence a deterministic localized
// template answers instead, so the turn always completes. Marks the turn
// completed and clears any pending UI hint.
func (c *Controller) Respond(ctx context.Context, state *domain.State, cfg runtime.Config) (domain.Update, error) {
	var text string
	if c.responder != nil {
		generated, err := c.responder.Respond(ctx, state)
		if err != nil {
			c.logger.Warn("response generation failed, using template",
				"thread_id", cfg.ThreadID,
				"err", err,
			)
		} else {
			text = generated
		}
	}
	if text == "" {
		text = c.templateResponse(state)
	}

	c.emitChunks(cfg, domain.EventCompletionChunk, text)
	return domain.Update{
		Step:        domain.StepCompleted,
		Response:    text,
		Messages:    []domain.Message{domain.AssistantMessage(text)},
		ClearAction: true,
	}, nil
}

// templateResponse renders the deterministic fallback answer for the
// classified intent.
func (c *Controller) templateResponse(state *domain.State) string {
	intent := domain.IntentGeneralInquiry
	if state.Intent != nil {
		intent = state.Intent.Intent
	}
	lang := state.Language()

	if templates, ok := responseTemplates[lang]; ok {
		if msg, ok := templates[intent]; ok {
			return c.expand(msg, intent, state)
		}
	}
	if msg, ok := responseTemplates["en"][intent]; ok {
		return c.expand(msg, intent, state)
	}
	return responseTemplates["en"][domain.IntentGeneralInquiry]
}

// expand fills the {summary} placeholder with the collected slot values in
// schema order.
func (c *Controller) expand(template string, intent domain.Intent, state *domain.State) string {
	if !strings.Contains(template, "{summary}") {
		return template
	}
	var parts []string
	for _, field := range c.registry.Required(intent) {
		v, ok := state.Slots[field]
		if !ok || v == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", c.registry.Display(field), v))
	}
	return strings.ReplaceAll(template, "{summary}", strings.Join(parts, ", "))
}

var responseTemplates = map[string]map[domain.Intent]string{
	"en": {
		domain.IntentGreeting:       "Hello! I can help you book flights, search for flights, check the weather, or track a flight. What would you like to do?",
		domain.IntentGeneralInquiry: "I'm your flight assistant. I can book flights, search for flights, check the weather at your destination, and look up flight status. How can I help?",
		domain.IntentBookFlight:     "Thanks! I'm processing your booking with these details: {summary}.",
		domain.IntentSearchFlights:  "Searching for flights matching: {summary}.",
		domain.IntentCheckWeather:   "Let me look up the weather for you: {summary}.",
		domain.IntentFlightStatus:   "Checking the status of your flight: {summary}.",
		domain.IntentBookingInfo:    "Let me pull up your booking details.",
		domain.IntentCancelBooking:  "I can help you cancel your booking. Please confirm the booking you want to cancel.",
	},
	"vi": {
		domain.IntentGreeting:       "Xin chào! Tôi có thể giúp bạn đặt vé, tìm chuyến bay, xem thời tiết hoặc tra cứu tình trạng chuyến bay. Bạn cần gì?",
		domain.IntentGeneralInquiry: "Tôi là trợ lý chuyến bay của bạn. Tôi có thể đặt vé, tìm chuyến bay, xem thời tiết và tra cứu tình trạng chuyến bay. Tôi có thể giúp gì?",
		domain.IntentBookFlight:     "Cảm ơn bạn! Tôi đang xử lý đặt chỗ với thông tin: {summary}.",
	},
	"es": {
		domain.IntentGreeting:       "¡Hola! Puedo ayudarte a reservar vuelos, buscar vuelos, consultar el clima o el estado de un vuelo. ¿Qué necesitas?",
		domain.IntentGeneralInquiry: "Soy tu asistente de vuelos. Puedo reservar vuelos, buscar vuelos, consultar el clima y el estado de los vuelos. ¿En qué te ayudo?",
		domain.IntentBookFlight:     "¡Gracias! Estoy procesando tu reserva con estos datos: {summary}.",
	},
}
