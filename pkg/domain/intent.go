package domain

// Intent is the classified purpose of a user utterance, drawn from a fixed taxonomy.
type Intent string

const (
	IntentBookFlight     Intent = "book_flight"
	IntentSearchFlights  Intent = "search_flights"
	IntentCheckWeather   Intent = "check_weather"
	IntentFlightStatus   Intent = "flight_status"
	IntentBookingInfo    Intent = "booking_info"
	IntentCancelBooking  Intent = "cancel_booking"
	IntentGeneralInquiry Intent = "general_inquiry"
	IntentGreeting       Intent = "greeting"
)

// Intents lists the full taxonomy in a stable order, for prompts and validation.
func Intents() []Intent {
	return []Intent{
		IntentBookFlight,
		IntentSearchFlights,
		IntentCheckWeather,
		IntentFlightStatus,
		IntentBookingInfo,
		IntentCancelBooking,
		IntentGeneralInquiry,
		IntentGreeting,
	}
}

// Known reports whether the intent belongs to the taxonomy.
func (i Intent) Known() bool {
	for _, known := range Intents() {
		if i == known {
			return true
		}
	}
	return false
}

// SlotFilling reports whether the intent drives the slot collection flow.
func (i Intent) SlotFilling() bool {
	return i == IntentBookFlight || i == IntentSearchFlights
}

// Classification is the structured result of intent classification.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Language   string  `json:"language"`
}

// FallbackClassification is the safe default substituted when the
// classification port fails. Classification failure is never fatal to a turn.
func FallbackClassification() *Classification {
	return &Classification{
		Intent:     IntentGeneralInquiry,
		Confidence: 0.5,
		Reasoning:  "classification failed",
		Language:   "en",
	}
}
