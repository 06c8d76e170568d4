package request

import "sync"

// Future is the deferred result of a dispatched request. It settles once,
// with either a Response or an error.
type Future struct {
	done chan struct{}
	once sync.Once

	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) settle(resp *Response, err error) {
	f.once.Do(func() {
		f.resp = resp
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the exchange completes and returns its outcome.
// It may be called any number of times from any goroutine.
func (f *Future) Await() (*Response, error) {
	<-f.done
	return f.resp, f.err
}

// Poll returns the outcome without blocking. ok is false while the request
// is still in flight.
func (f *Future) Poll() (resp *Response, ok bool, err error) {
	select {
	case <-f.done:
		return f.resp, true, f.err
	default:
		return nil, false, nil
	}
}
