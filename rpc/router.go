package rpc

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/nullsector/termkit/vtparse"
)

// MalformedHook receives raw sequences that looked like RPC frames but
// could not be dispatched: bad final byte, missing id/version, or an id
// outside every registered range.
type MalformedHook func(raw []byte, kind ErrorType)

type registration struct {
	handler   Handler
	validator *ParameterValidator
}

// Router validates, dispatches and replies to private-use CSI RPC frames.
// It is safe for concurrent use from multiple goroutines; registration and
// dispatch share one mutex-guarded handler map, the same "process-wide
// service" shape as the trace package's global sink.
type Router struct {
	mu       sync.RWMutex
	handlers map[int]registration
	enabled  bool

	responses io.Writer
	logger    Logger
	malformed MalformedHook
}

// RouterOption configures a Router at construction time.
type RouterOption func(*Router)

// WithResponseWriter sets where Response/Error wire frames are written
// (typically the same writer that carries DSR-style responses back to the
// shell).
func WithResponseWriter(w io.Writer) RouterOption {
	return func(r *Router) { r.responses = w }
}

// WithLogger overrides the default stdlib logger.
func WithLogger(l Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithMalformedHook registers the malformed-sequence observer.
func WithMalformedHook(h MalformedHook) RouterOption {
	return func(r *Router) { r.malformed = h }
}

// NewRouter returns an enabled Router with no handlers registered.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		handlers: make(map[int]registration),
		enabled:  true,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enable turns RPC siphoning on. Routers start enabled.
func (r *Router) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
}

// Disable turns RPC siphoning off: HandleRPC then always returns false, so
// the parser falls back to ordinary CSI dispatch and the RPC subsystem
// becomes fully transparent.
func (r *Router) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Register associates id with handler and an optional validator. It
// rejects ids outside the command-id range of message type t.
func (r *Router) Register(id int, t MessageType, h Handler, v *ParameterValidator) error {
	if !IsValidCommandIDRange(id, t) {
		return fmt.Errorf("rpc: command id %d is not valid for type %c", id, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = registration{handler: h, validator: v}
	return nil
}

// Unregister removes a previously registered handler.
func (r *Router) Unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

func (r *Router) lookup(id int) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[id]
	return reg, ok
}

// HandleRPC implements vtparse.RPCSink. It returns false only when the
// router is disabled, so the frame goes to the standard CSI handler.
// Every other frame is handled internally (malformed and unregistered
// cases are reported to the malformed hook) and returns true so it never
// reaches CsiDispatch.
func (r *Router) HandleRPC(params *vtparse.Params, final byte, raw []byte) bool {
	r.mu.RLock()
	enabled := r.enabled
	r.mu.RUnlock()
	if !enabled {
		return false
	}

	msgType := MessageType(final)
	if !msgType.Valid() {
		r.reportMalformed(raw, ErrorMalformed)
		return true
	}

	if params.Len() < 1 {
		r.reportMalformed(raw, ErrorMalformed)
		return true
	}
	id := params.Get(0, -1)
	version := params.Get(1, 1)
	if id < 0 {
		r.reportMalformed(raw, ErrorMalformed)
		return true
	}

	if !IsValidCommandIDRange(id, msgType) {
		r.reportMalformed(raw, ErrorMalformed)
		return true
	}

	cmdParams := CommandParams{}
	for i := 2; i < params.Len(); i++ {
		cmdParams.Numeric = append(cmdParams.Numeric, params.Get(i, 0))
	}

	switch msgType {
	case TypeFireAndForget, TypeError:
		r.dispatchFireAndForget(id, cmdParams, raw)
	case TypeQuery:
		r.dispatchQuery(id, version, cmdParams, raw)
	case TypeResponse:
		// A bare Response frame arriving inbound isn't a command this
		// router can act on; it is the shape the router itself emits.
		r.reportMalformed(raw, ErrorMalformed)
	}
	return true
}

func (r *Router) reportMalformed(raw []byte, kind ErrorType) {
	if r.malformed != nil {
		r.malformed(raw, kind)
	}
}

func (r *Router) dispatchFireAndForget(id int, params CommandParams, raw []byte) {
	reg, ok := r.lookup(id)
	if !ok {
		r.reportMalformed(raw, ErrorUnregisteredCommand)
		return
	}

	verdict := reg.validator.Validate(params)
	if !verdict.Valid {
		if verdict.IsSecurityViolation {
			r.logger.Printf("rpc: security validation violation on command %d", id)
		}
		return
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Printf("rpc: handler for command %d panicked: %v", id, rec)
			}
		}()
		// Fire-and-forget errors are absorbed: the result is never placed
		// on the wire and the router stays live for subsequent calls.
		reg.handler.Execute(params)
	}()
}

func (r *Router) dispatchQuery(id, version int, params CommandParams, raw []byte) {
	reg, ok := r.lookup(id)
	if !ok {
		r.reportMalformed(raw, ErrorUnregisteredCommand)
		return
	}

	verdict := reg.validator.Validate(params)
	if !verdict.Valid {
		if verdict.IsSecurityViolation {
			r.logger.Printf("rpc: security validation violation on command %d", id)
		}
		r.writeResponse(id, version, CreateFailure("parameter validation failed", 0))
		return
	}

	timeout := reg.handler.Timeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("handler panicked: %v", rec)}
			}
		}()
		res, err := reg.handler.Execute(params)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			r.writeResponse(id, version, CreateFailure(out.err.Error(), elapsed))
			return
		}
		out.result.ExecutionTime = elapsed
		r.writeResponse(id, version, out.result)
	case <-time.After(timeout):
		r.logger.Printf("rpc: command %d timed out after %s", id, timeout)
		r.writeTimeout(id, version)
	}
}

func (r *Router) writeResponse(id, version int, res Result) {
	if r.responses == nil {
		return
	}
	payload := "0;"
	if res.Success {
		payload = "1;" + res.Data
	} else {
		payload = "0;" + res.ErrorMessage
	}
	fmt.Fprintf(r.responses, "\x1b[>%d;%d;%s;R", id, version, payload)
}

func (r *Router) writeTimeout(id, version int) {
	if r.responses == nil {
		return
	}
	fmt.Fprintf(r.responses, "\x1b[>%d;%d;%d;TIMEOUT E", TimeoutCommandID, version, id)
}

var _ vtparse.RPCSink = (*Router)(nil)
