// Package interceptor provides the priority-ordered interceptor chain that sits
// in front of an outbound request channel.
//
// An interceptor has two independently optional capabilities:
//
//   - RequestHandler: may short-circuit a request by returning a Response.
//     Returning nil means "continue to the next interceptor".
//   - ResponseObserver: sees every response that flows back through the
//     chain, whoever produced it. Observers cannot change the outcome.
//
// # Ordering
//
// Interceptors run in ascending priority order, so priority 6 runs before
// priority 9. Interceptors pushed with equal priority run in insertion order.
//
//	chain := interceptor.NewChain()
//	_ = chain.Push(tracker, 6)
//	_ = chain.Push(responder, 9)
//
//	resp, err := chain.DispatchRequest(ctx, req)
//	if resp == nil && err == nil {
//	    // unhandled: perform the real call
//	}
//	chain.DispatchResponse(ctx, req, resp)
//
// # Identity
//
// Pop removes an interceptor by identity. Interceptors must therefore have a
// comparable dynamic type, in practice a pointer. Use Func to wrap plain
// functions. Popping an interceptor that is not in the chain returns
// ErrNotInChain: mismatched setup and teardown is a caller bug.
//
// # Concurrency
//
// Push and Pop are safe to call from any goroutine, and each walk runs over
// a snapshot, so separate goroutines may dispatch on one chain at once. A
// walk marks its context; dispatching on the same chain from inside one of
// its own interceptors with that context fails with ErrReentrant.
package interceptor
