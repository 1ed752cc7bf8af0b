package market

// Timeframe is a selectable history range. Days == 0 means maximum history.
type Timeframe struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Days   int    `json:"days"`
	Sample int    `json:"sample,omitempty"`
}

// DefaultDays is the history window used when a request names none
const DefaultDays = 30

var timeframes = []Timeframe{
	{Value: "1W", Label: "1 Week", Days: 7},
	{Value: "1M", Label: "1 Month", Days: 30},
	{Value: "3M", Label: "3 Months", Days: 90},
	{Value: "6M", Label: "6 Months", Days: 180},
	{Value: "1Y", Label: "1 Year", Days: 365},
	{Value: "2Y", Label: "2 Years", Days: 730},
	{Value: "5Y", Label: "5 Years", Days: 1825},
	{Value: "MAX", Label: "Max", Days: 0},
}

// Timeframes returns the presets with their recommended sample sizes
func Timeframes() []Timeframe {
	out := make([]Timeframe, len(timeframes))
	for i, tf := range timeframes {
		tf.Sample = RecommendedSample(tf.Days)
		out[i] = tf
	}
	return out
}

// LookupTimeframe finds a preset by value, e.g. "1Y"
func LookupTimeframe(value string) (Timeframe, bool) {
	for _, tf := range Timeframes() {
		if tf.Value == value {
			return tf, true
		}
	}
	return Timeframe{}, false
}

// RecommendedSample is the point budget a client should request for a
// window, or 0 when the full series is cheap enough to draw.
func RecommendedSample(days int) int {
	switch {
	case days <= 0:
		return 800
	case days > 730:
		return 300
	case days > 365:
		return 250
	default:
		return 0
	}
}
