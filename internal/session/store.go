// Package session holds transient per-participant conversational state.
// State lives in process memory only; losing it on restart just restarts
// the participant's in-progress flow.
package session

import (
	"sync"
	"time"

	"group-order-bot/internal/domain"
)

// Step tags what input the bot expects next from a chat.
type Step string

const (
	StepRoleChoice    Step = "ROLE_CHOICE"
	StepCompanyChoice Step = "COMPANY_CHOICE"
	StepName          Step = "NAME"
	StepPhone         Step = "PHONE"
	StepCompanyName   Step = "COMPANY_NAME"

	StepRestaurantName Step = "RESTAURANT_NAME"
	StepItemName       Step = "ITEM_NAME"
	StepItemPrice      Step = "ITEM_PRICE"
	StepOrderLines     Step = "ORDER_LINES"
)

// State accumulates the fields of an in-progress multi-step flow. Which
// fields are meaningful depends on Step.
type State struct {
	Step Step

	// registration
	Role      domain.Role
	Name      string
	Phone     string
	CompanyID *int64

	// catalog
	RestaurantID int64
	ItemName     string

	// order line submission
	GroupID string
	OrderID int64
	Menu    []domain.MenuItem
}

// Store is keyed by the participant's chat id. Set replaces any existing
// state for the key, which is how an abandoned flow gets superseded. TakeIf
// checks the step and deletes in one operation, so two concurrent consumers
// of the same flow cannot both succeed.
type Store interface {
	Get(key int64) (State, bool)
	Set(key int64, st State)
	Clear(key int64)
	TakeIf(key int64, step Step) (State, bool)
}

type entry struct {
	st       State
	deadline time.Time
}

// Memory is the in-process Store. A non-zero TTL bounds how long abandoned
// sessions are kept; expired entries read as absent and are dropped lazily.
type Memory struct {
	mu  sync.Mutex
	m   map[int64]entry
	ttl time.Duration
	now func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{m: make(map[int64]entry), ttl: ttl, now: time.Now}
}

func (s *Memory) Get(key int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return State{}, false
	}
	if !e.deadline.IsZero() && s.now().After(e.deadline) {
		delete(s.m, key)
		return State{}, false
	}
	return e.st, true
}

func (s *Memory) Set(key int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deadline time.Time
	if s.ttl > 0 {
		deadline = s.now().Add(s.ttl)
	}
	s.m[key] = entry{st: st, deadline: deadline}
}

// TakeIf consumes the state for key, but only when its step matches. A miss
// (absent, expired or a different step) leaves a matching entry untouched.
func (s *Memory) TakeIf(key int64, step Step) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return State{}, false
	}
	if !e.deadline.IsZero() && s.now().After(e.deadline) {
		delete(s.m, key)
		return State{}, false
	}
	if e.st.Step != step {
		return State{}, false
	}
	delete(s.m, key)
	return e.st, true
}

func (s *Memory) Clear(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}
