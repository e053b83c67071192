package interceptor

import "errors"

var (
	// ErrNotInChain is returned when popping an interceptor the chain does not hold.
	ErrNotInChain = errors.New("interceptor not in chain")

	// ErrNoCapability is returned when pushing a value that neither handles
	// requests nor observes responses.
	ErrNoCapability = errors.New("interceptor implements neither RequestHandler nor ResponseObserver")

	// ErrNotComparable is returned when pushing a value whose identity cannot be compared.
	ErrNotComparable = errors.New("interceptor type is not comparable; push a pointer")

	// ErrReentrant is returned when an interceptor dispatches on the chain
	// that is currently walking it.
	ErrReentrant = errors.New("chain is already dispatching")
)
