package conversation

// Flow events reported to the Observer.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventAborted   = "aborted"
)

// Observer receives conversation metrics.
type Observer interface {
	FlowEvent(flow, event string)
	ValidationError(step string)
	StoreFailure(op string)
	TripRecorded(litres float64)
}

type nopObserver struct{}

func (nopObserver) FlowEvent(string, string) {}
func (nopObserver) ValidationError(string)   {}
func (nopObserver) StoreFailure(string)      {}
func (nopObserver) TripRecorded(float64)     {}
