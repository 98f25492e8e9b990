package eventbus

import (
	"errors"
	"sync"
	"time"

	"github.com/Rorical/RoriPersona/internal/models"
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// SendMessageEvent - UI asks core to answer a visitor message
type SendMessageEvent struct {
	Message string
}

func (e SendMessageEvent) UIEvent() {}

// ResetEvent - UI asks core to forget the session history
type ResetEvent struct{}

func (e ResetEvent) UIEvent() {}

// TurnOutcome summarizes how the last reply was produced
type TurnOutcome struct {
	Attempts    int
	Evaluations int
	ToolRounds  int
	Unrevised   bool
	Acceptance  string
}

// StateUpdateEvent - Core pushes state changes to UI
type StateUpdateEvent struct {
	Lines        []models.Line // lines added since the previous update
	Reset        bool          // drop everything shown before Lines
	IsProcessing bool
	Outcome      *TurnOutcome // set when a turn just completed
	Error        error
}

func (e StateUpdateEvent) CoreEvent() {}

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrChannelFull = errors.New("event channel is full")
)

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error {
	return e.Err
}

// CircuitBreakerState represents the state of circuit breaker
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops sends after repeated failures until resetTimeout passes.
// Both directions of the bus share it, so it is safe for concurrent use.
type CircuitBreaker struct {
	mu              sync.Mutex
	maxFailures     int
	resetTimeout    time.Duration
	failureCount    int
	lastFailureTime time.Time
	state           CircuitBreakerState
	now             func() time.Time
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
		now:          time.Now,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		cb.state = CircuitHalfOpen
	}
	return cb.state == CircuitOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailureTime = cb.now()

	if cb.failureCount >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// EventBus carries events between the UI goroutine and the chat service
type EventBus struct {
	uiToCore       chan UIEvent
	coreToUI       chan CoreEvent
	errorCallback  func(EventBusError)
	circuitBreaker *CircuitBreaker
	closeOnce      sync.Once
}

func NewEventBus() *EventBus {
	return &EventBus{
		uiToCore:       make(chan UIEvent, 100),
		coreToUI:       make(chan CoreEvent, 100),
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// SetErrorCallback must be called before the bus is used
func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	busError := EventBusError{
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}

	eb.circuitBreaker.RecordFailure()

	if eb.errorCallback != nil {
		eb.errorCallback(busError)
	}
	return busError
}

func send[E any](eb *EventBus, operation string, ch chan E, event E) error {
	if eb.circuitBreaker.IsOpen() {
		return eb.reportError(operation, ErrCircuitOpen)
	}

	select {
	case ch <- event:
		eb.circuitBreaker.RecordSuccess()
		return nil
	default:
		return eb.reportError(operation, ErrChannelFull)
	}
}

func (eb *EventBus) SendToCore(event UIEvent) error {
	return send(eb, "SendToCore", eb.uiToCore, event)
}

func (eb *EventBus) SendToUI(event CoreEvent) error {
	return send(eb, "SendToUI", eb.coreToUI, event)
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

func (eb *EventBus) GetCircuitBreakerState() CircuitBreakerState {
	return eb.circuitBreaker.State()
}

func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() {
		close(eb.uiToCore)
		close(eb.coreToUI)
	})
}
