package schema

import (
	"github.com/parley-ai/parley/pkg/domain"
)

// Slot names used across the registry and the dialogue nodes.
const (
	FieldDepartureCity = "departure_city"
	FieldArrivalCity   = "arrival_city"
	FieldRoundTrip     = "round_trip"
	FieldDate          = "date"
	FieldReturnDate    = "return_date"
	FieldPassengers    = "passengers"
	FieldClassType     = "class_type"
	FieldPassengerName = "passenger_name"
	FieldEmail         = "email"
	FieldCity          = "city"
	FieldFlightNumber  = "flight_number"
)

// Field describes one slot: its display name, the input widget a UI should
// show for it, and the localized follow-up question templates.
type Field struct {
	Name      string
	Display   string
	Widget    string
	Questions map[string]string
}

// Registry maps intents to their ordered required fields. Immutable after
// construction.
type Registry struct {
	required map[domain.Intent][]string
	fields   map[string]Field
	done     map[string]string // localized completion messages
}

// New builds a registry from explicit tables. Most callers want Default.
func New(required map[domain.Intent][]string, fields []Field, done map[string]string) *Registry {
	fieldIdx := make(map[string]Field, len(fields))
	for _, f := range fields {
		fieldIdx[f.Name] = f
	}
	return &Registry{required: required, fields: fieldIdx, done: done}
}

// Default returns the flight-booking registry.
func Default() *Registry {
	return New(
		map[domain.Intent][]string{
			domain.IntentBookFlight: {
				FieldDepartureCity, FieldArrivalCity, FieldRoundTrip, FieldDate,
				FieldReturnDate, FieldPassengers, FieldClassType,
				FieldPassengerName, FieldEmail,
			},
			domain.IntentSearchFlights: {
				FieldDepartureCity, FieldArrivalCity, FieldRoundTrip, FieldDate,
				FieldReturnDate,
			},
			domain.IntentCheckWeather: {FieldCity},
			domain.IntentFlightStatus: {FieldFlightNumber},
		},
		[]Field{
			{
				Name: FieldDepartureCity, Display: "departure city", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "Which city are you departing from?",
					"vi": "Bạn khởi hành từ thành phố nào?",
					"es": "¿Desde qué ciudad sales?",
				},
			},
			{
				Name: FieldArrivalCity, Display: "destination city", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "Which city are you flying to?",
					"vi": "Bạn muốn bay đến thành phố nào?",
					"es": "¿A qué ciudad vuelas?",
				},
			},
			{
				Name: FieldRoundTrip, Display: "round trip", Widget: domain.WidgetBoolean,
				Questions: map[string]string{
					"en": "Is this a round trip?",
					"vi": "Bạn có muốn bay khứ hồi không?",
					"es": "¿Es un viaje de ida y vuelta?",
				},
			},
			{
				Name: FieldDate, Display: "travel date", Widget: domain.WidgetDate,
				Questions: map[string]string{
					"en": "What date would you like to travel?",
					"vi": "Bạn muốn đi vào ngày nào?",
					"es": "¿Qué día te gustaría viajar?",
				},
			},
			{
				Name: FieldReturnDate, Display: "return date", Widget: domain.WidgetDate,
				Questions: map[string]string{
					"en": "What date would you like to return?",
					"vi": "Bạn muốn quay về vào ngày nào?",
					"es": "¿Qué día te gustaría regresar?",
				},
			},
			{
				Name: FieldPassengers, Display: "number of passengers", Widget: domain.WidgetNumber,
				Questions: map[string]string{
					"en": "How many passengers are traveling?",
					"vi": "Có bao nhiêu hành khách?",
					"es": "¿Cuántos pasajeros viajan?",
				},
			},
			{
				Name: FieldClassType, Display: "class type", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "Which class would you like: economy, business, or first?",
					"vi": "Bạn muốn hạng vé nào: phổ thông, thương gia hay hạng nhất?",
					"es": "¿Qué clase prefieres: económica, business o primera?",
				},
			},
			{
				Name: FieldPassengerName, Display: "passenger name", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "What is the passenger's full name?",
					"vi": "Tên đầy đủ của hành khách là gì?",
					"es": "¿Cuál es el nombre completo del pasajero?",
				},
			},
			{
				Name: FieldEmail, Display: "email address", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "What email address should we use for the booking?",
					"vi": "Chúng tôi nên dùng địa chỉ email nào cho đặt chỗ?",
					"es": "¿Qué correo electrónico usamos para la reserva?",
				},
			},
			{
				Name: FieldCity, Display: "city", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "Which city would you like the weather for?",
					"vi": "Bạn muốn xem thời tiết ở thành phố nào?",
					"es": "¿De qué ciudad quieres el clima?",
				},
			},
			{
				Name: FieldFlightNumber, Display: "flight number", Widget: domain.WidgetText,
				Questions: map[string]string{
					"en": "What is your flight number?",
					"vi": "Số hiệu chuyến bay của bạn là gì?",
					"es": "¿Cuál es tu número de vuelo?",
				},
			},
		},
		map[string]string{
			"en": "Perfect! I have all the information I need to help you.",
			"vi": "Tuyệt vời! Tôi đã có đủ thông tin cần thiết để hỗ trợ bạn.",
			"es": "¡Perfecto! Tengo toda la información que necesito para ayudarte.",
		},
	)
}

// Required returns the declared field order for an intent. The returned slice
// must not be mutated.
func (r *Registry) Required(intent domain.Intent) []string {
	return r.required[intent]
}

// Knows reports whether the field exists in the registry.
func (r *Registry) Knows(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// Missing computes the required fields not yet satisfied by slots, in the
// schema's declared order. Declared order is the tie-break for which question
// is asked next and must be stable.
//
// The return_date rule: return_date is required iff round_trip is true. A
// boolean false counts as provided (the user answered "no"); nil and empty
// string count as missing.
func (r *Registry) Missing(intent domain.Intent, slots map[string]any) []string {
	var missing []string
	for _, field := range r.required[intent] {
		if field == FieldReturnDate && !isTrue(slots[FieldRoundTrip]) {
			continue
		}
		if !provided(slots[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Question renders the localized follow-up question for a field, falling back
// to English when the language has no template.
func (r *Registry) Question(field, lang string) string {
	f, ok := r.fields[field]
	if !ok {
		return ""
	}
	if q, ok := f.Questions[lang]; ok {
		return q
	}
	return f.Questions["en"]
}

// Completion renders the localized "all information collected" message.
func (r *Registry) Completion(lang string) string {
	if msg, ok := r.done[lang]; ok {
		return msg
	}
	return r.done["en"]
}

// Widget returns the input-widget kind for a field, or "" if unknown.
func (r *Registry) Widget(field string) string {
	return r.fields[field].Widget
}

// Display returns the human-readable name for a field.
func (r *Registry) Display(field string) string {
	if f, ok := r.fields[field]; ok {
		return f.Display
	}
	return field
}

// Filter drops keys not registered for the intent, keeping the invariant that
// slot keys are always a subset of the schema's fields.
func (r *Registry) Filter(intent domain.Intent, slots map[string]any) map[string]any {
	allowed := make(map[string]bool, len(r.required[intent]))
	for _, f := range r.required[intent] {
		allowed[f] = true
	}
	out := make(map[string]any, len(slots))
	for k, v := range slots {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

func provided(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		// An explicit false is an answer, not a gap.
		return true
	default:
		return true
	}
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
