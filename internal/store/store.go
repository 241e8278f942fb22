// Package store holds the client-side city state and the operations that
// change it. Every change goes through Reduce; Store only orchestrates the
// HTTP calls around it and dispatches the resulting actions.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/worldwise/internal/domain"
)

// Client is the cities API surface the store depends on.
// *citiesapi.Client satisfies it; tests inject a mock.
type Client interface {
	List(ctx context.Context) ([]domain.City, error)
	Get(ctx context.Context, id domain.CityID) (domain.City, error)
	Create(ctx context.Context, nc domain.NewCity) (domain.City, error)
	Delete(ctx context.Context, id domain.CityID) error
}

// Operation names a store operation in logs and metrics.
type Operation string

const (
	OpFetchAll Operation = "fetch_all"
	OpGetByID  Operation = "get_by_id"
	OpCreate   Operation = "create"
	OpDelete   Operation = "delete"
)

// Outcome is how an operation ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped" // GetByID on the current city
	OutcomeStale    Outcome = "stale"   // completion dropped, see WithDropStale
)

// Fixed, user-facing rejection messages. The underlying cause never reaches the state.
const (
	MsgLoadCities = "There was an error loading cities..."
	MsgLoadCity   = "There was an error loading the city..."
	MsgCreateCity = "There was an error creating the city..."
	MsgDeleteCity = "There was an error deleting the city..."
)

var rejectionMessages = map[Operation]string{
	OpFetchAll: MsgLoadCities,
	OpGetByID:  MsgLoadCity,
	OpCreate:   MsgCreateCity,
	OpDelete:   MsgDeleteCity,
}

// Rejection is returned by an operation that dispatched Rejected.
// It carries the same fixed message the state records, nothing more.
type Rejection struct {
	Op      Operation
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// ErrStale is returned by an operation whose completion was dropped because a
// later operation started before it settled (see WithDropStale). Nothing was
// dispatched for it, so the state reflects the later operation instead.
var ErrStale = errors.New("store: completion superseded")

// Observer is notified once per finished operation.
type Observer interface {
	ObserveOperation(op Operation, outcome Outcome, d time.Duration)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for operation failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver registers o for operation outcomes.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithCurrentCityShortCircuit controls whether GetByID skips the request when
// asked for the city that is already current. On by default.
func WithCurrentCityShortCircuit(on bool) Option {
	return func(s *Store) { s.shortCircuit = on }
}

// WithDropStale makes the store discard the completion of any operation that
// was overtaken by a later one. Off by default: completions are applied in
// the order they settle and the last one wins.
func WithDropStale(on bool) Option {
	return func(s *Store) { s.dropStale = on }
}

// Store owns one State for the lifetime of a session.
// All methods are safe for concurrent use; operations are not mutually
// exclusive, so overlapping calls interleave their dispatches.
type Store struct {
	client       Client
	log          *slog.Logger
	observer     Observer
	shortCircuit bool
	dropStale    bool

	mu    sync.Mutex
	state State
	seq   uint64 // token of the most recently started operation

	mountOnce sync.Once
}

// New constructs a Store backed by client. It panics if client is nil.
// The store starts empty; call Mount to perform the initial load.
func New(client Client, opts ...Option) *Store {
	if client == nil {
		panic("store: New called with a nil Client")
	}
	s := &Store{
		client:       client,
		log:          slog.Default(),
		shortCircuit: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Mount is the store's one-shot lifecycle hook: the first call loads the
// whole collection from the API, every later call returns nil immediately.
// There is no other way to trigger a full reload.
func (s *Store) Mount(ctx context.Context) error {
	var err error
	s.mountOnce.Do(func() {
		err = s.run(ctx, OpFetchAll, func(ctx context.Context) (Action, error) {
			cities, err := s.client.List(ctx)
			if err != nil {
				return nil, err
			}
			return CitiesLoaded{Cities: cities}, nil
		})
	})
	return err
}

// GetByID loads one city and makes it current.
// When id is already the current city's ID (and the short circuit is on)
// nothing is requested or dispatched.
func (s *Store) GetByID(ctx context.Context, id domain.CityID) error {
	if s.shortCircuit && s.isCurrent(id) {
		s.observe(OpGetByID, OutcomeSkipped, 0)
		return nil
	}
	return s.run(ctx, OpGetByID, func(ctx context.Context) (Action, error) {
		city, err := s.client.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return CityLoaded{City: city}, nil
	})
}

// Create posts nc and, on success, appends the server's representation and
// makes it current.
func (s *Store) Create(ctx context.Context, nc domain.NewCity) error {
	return s.run(ctx, OpCreate, func(ctx context.Context) (Action, error) {
		city, err := s.client.Create(ctx, nc)
		if err != nil {
			return nil, err
		}
		return CityCreated{City: city}, nil
	})
}

// Delete removes the city with id. On success the current city is cleared
// whether or not it was the one deleted.
func (s *Store) Delete(ctx context.Context, id domain.CityID) error {
	return s.run(ctx, OpDelete, func(ctx context.Context) (Action, error) {
		if err := s.client.Delete(ctx, id); err != nil {
			return nil, err
		}
		return CityDeleted{ID: id}, nil
	})
}

// run is the protocol every operation follows: dispatch LoadingStarted,
// make one call, then dispatch either the call's action or Rejected.
// A dropped completion returns ErrStale whether the call succeeded or not.
func (s *Store) run(ctx context.Context, op Operation, call func(context.Context) (Action, error)) error {
	start := time.Now()
	token := s.begin()

	action, err := call(ctx)
	outcome := OutcomeOK
	var result error
	if err != nil {
		s.log.WarnContext(ctx, "store operation failed", "operation", op, "error", err)
		msg := rejectionMessages[op]
		action = Rejected{Message: msg}
		outcome = OutcomeRejected
		result = &Rejection{Op: op, Message: msg}
	}

	if !s.settle(token, action) {
		s.log.DebugContext(ctx, "dropped stale completion", "operation", op, "action", action.Kind())
		outcome = OutcomeStale
		result = ErrStale
	}
	s.observe(op, outcome, time.Since(start))
	return result
}

// begin dispatches LoadingStarted and returns the new operation's token.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = Reduce(s.state, LoadingStarted{})
	return s.seq
}

// settle dispatches a completion. It reports false, without dispatching, when
// stale completions are dropped and another operation started after token.
func (s *Store) settle(token uint64, a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropStale && token != s.seq {
		return false
	}
	s.state = Reduce(s.state, a)
	return true
}

func (s *Store) isCurrent(id domain.CityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Current != nil && s.state.Current.ID == id
}

func (s *Store) observe(op Operation, outcome Outcome, d time.Duration) {
	if s.observer != nil {
		s.observer.ObserveOperation(op, outcome, d)
	}
}
