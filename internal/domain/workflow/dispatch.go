package workflow

// NewDispatchMachine builds the dispatch order status machine positioned at
// the given state. The edges are strictly one-way: an order that left
// pending_approval can never be approved or rejected again, which is what
// makes repeated commander decisions idempotent no-ops at the caller.
func NewDispatchMachine(current State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StatePendingApproval).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateApproved).
		Permit(TriggerDispatch, StateDispatched).
		Permit(TriggerCancel, StateCanceled)

	builder.Configure(StateDispatched).
		Permit(TriggerArrive, StateInProgress).
		Permit(TriggerCancel, StateCanceled)

	builder.Configure(StateInProgress).
		Permit(TriggerComplete, StateCompleted)

	return builder.Build(current)
}
