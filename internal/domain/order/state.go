package order

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	To(next Status) (OrderState, error)
}

var states = map[Status]OrderState{
	StatusPending:    pendingState{},
	StatusProcessing: processingState{},
	StatusShipped:    shippedState{},
	StatusDelivered:  terminalState{status: StatusDelivered},
	StatusCancelled:  terminalState{status: StatusCancelled},
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) To(next Status) (OrderState, error) {
	switch next {
	case StatusProcessing:
		return processingState{}, nil
	case StatusCancelled:
		return terminalState{status: StatusCancelled}, nil
	}
	return nil, ErrInvalidStateTransition
}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }

func (processingState) To(next Status) (OrderState, error) {
	if next == StatusShipped {
		return shippedState{}, nil
	}
	return nil, ErrInvalidStateTransition
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) To(next Status) (OrderState, error) {
	if next == StatusDelivered {
		return terminalState{status: StatusDelivered}, nil
	}
	return nil, ErrInvalidStateTransition
}

// terminalState covers delivered and cancelled.
type terminalState struct{ status Status }

func (s terminalState) Status() Status { return s.status }

func (terminalState) To(Status) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}
