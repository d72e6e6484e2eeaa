package types

// Direction is the predicted short-term price direction.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// Outlook is the interpreted output of the predictive model: a raw
// probability mapped onto a direction with a bounded confidence.
type Outlook struct {
	Direction   Direction `json:"direction"`
	Probability float64   `json:"probability"`
	Confidence  float64   `json:"confidence"`
}
