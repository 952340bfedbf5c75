package schema

import (
	"testing"

	"github.com/parley-ai/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestMissing_DeclaredOrder(t *testing.T) {
	r := Default()

	missing := r.Missing(domain.IntentBookFlight, map[string]any{})
	assert.Equal(t, FieldDepartureCity, missing[0], "first question follows schema order")

	// Filling unrelated later fields must not change the first missing field.
	missing = r.Missing(domain.IntentBookFlight, map[string]any{
		FieldEmail:      "a@b.c",
		FieldPassengers: 2,
	})
	assert.Equal(t, FieldDepartureCity, missing[0])
}

func TestMissing_ReturnDateRule(t *testing.T) {
	r := Default()
	base := map[string]any{
		FieldDepartureCity: "New York",
		FieldArrivalCity:   "London",
		FieldDate:          "2026-09-15",
		FieldPassengers:    2,
		FieldClassType:     "economy",
		FieldPassengerName: "John Smith",
		FieldEmail:         "john@x.com",
	}

	// round_trip unanswered: return_date is not yet required, round_trip is.
	missing := r.Missing(domain.IntentBookFlight, base)
	assert.Equal(t, []string{FieldRoundTrip}, missing)

	// round_trip false: return_date never appears.
	base[FieldRoundTrip] = false
	assert.Empty(t, r.Missing(domain.IntentBookFlight, base))

	// round_trip true: return_date required until present.
	base[FieldRoundTrip] = true
	assert.Equal(t, []string{FieldReturnDate}, r.Missing(domain.IntentBookFlight, base))

	base[FieldReturnDate] = "2026-09-20"
	assert.Empty(t, r.Missing(domain.IntentBookFlight, base))
}

func TestMissing_FalsyValues(t *testing.T) {
	r := Default()
	missing := r.Missing(domain.IntentCheckWeather, map[string]any{FieldCity: ""})
	assert.Equal(t, []string{FieldCity}, missing, "empty string is missing")

	missing = r.Missing(domain.IntentCheckWeather, map[string]any{FieldCity: nil})
	assert.Equal(t, []string{FieldCity}, missing, "nil is missing")
}

func TestQuestion_LanguageFallback(t *testing.T) {
	r := Default()
	assert.Equal(t, "Which city are you departing from?", r.Question(FieldDepartureCity, "en"))
	assert.Equal(t, "Bạn khởi hành từ thành phố nào?", r.Question(FieldDepartureCity, "vi"))
	// Unknown language falls back to English.
	assert.Equal(t, "Which city are you departing from?", r.Question(FieldDepartureCity, "de"))
	assert.Equal(t, "", r.Question("no_such_field", "en"))
}

func TestFilter_UnknownKeysDropped(t *testing.T) {
	r := Default()
	out := r.Filter(domain.IntentSearchFlights, map[string]any{
		FieldDepartureCity: "Paris",
		"favorite_color":   "blue",
		FieldEmail:         "a@b.c", // not required for search_flights
	})
	assert.Equal(t, map[string]any{FieldDepartureCity: "Paris"}, out)
}

func TestWidgets(t *testing.T) {
	r := Default()
	assert.Equal(t, domain.WidgetDate, r.Widget(FieldDate))
	assert.Equal(t, domain.WidgetDate, r.Widget(FieldReturnDate))
	assert.Equal(t, domain.WidgetNumber, r.Widget(FieldPassengers))
	assert.Equal(t, domain.WidgetBoolean, r.Widget(FieldRoundTrip))
	assert.Equal(t, domain.WidgetText, r.Widget(FieldEmail))
}
