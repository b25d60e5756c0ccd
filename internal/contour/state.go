package contour

// State is the builder's lifecycle state. It is a closed sum: the only
// implementations are Idle, Started, Drawing and Paused.
type State interface {
	isState()
	String() string
}

// Idle means no tool session is active and no contour exists.
type Idle struct{}

// Started means the tool is armed: the next left click begins a contour. A
// finalized contour may be present.
type Started struct{}

// Drawing means a contour is being drawn and pointer motion moves its live
// vertex.
type Drawing struct{}

// Paused means input is suspended, typically after a classification pass.
type Paused struct{}

func (Idle) isState()    {}
func (Started) isState() {}
func (Drawing) isState() {}
func (Paused) isState()  {}

func (Idle) String() string    { return "idle" }
func (Started) String() string { return "started" }
func (Drawing) String() string { return "drawing" }
func (Paused) String() string  { return "paused" }

func isDrawing(s State) bool {
	_, ok := s.(Drawing)
	return ok
}

func isPaused(s State) bool {
	_, ok := s.(Paused)
	return ok
}
