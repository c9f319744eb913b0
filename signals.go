package usermanagement

import "sync"

// RegistrationSubmittedEvent is published after a flow has been persisted and
// its activation email dispatched.
type RegistrationSubmittedEvent struct {
	Flow *RegistrationFlow
}

// AccountConfirmedEvent is published after a flow has been confirmed and the
// user account materialized.
type AccountConfirmedEvent struct {
	Flow *RegistrationFlow
	User Identity
}

// AuthenticationSuccessEvent is published after a successful login.
type AuthenticationSuccessEvent struct {
	Identifier string
}

// AuthenticationFailureEvent is published after a failed login attempt.
type AuthenticationFailureEvent struct {
	Identifier string
	Err        error
}

// LogoutEvent is published after a logout.
type LogoutEvent struct {
	Identifier string
}

// Signals is a callback registry for lifecycle events. Subscribers run
// synchronously in registration order; they must not block. A nil *Signals is
// valid and drops every event, so components can treat it as optional.
type Signals struct {
	mu                    sync.RWMutex
	registrationSubmitted []func(RegistrationSubmittedEvent)
	accountConfirmed      []func(AccountConfirmedEvent)
	authSuccess           []func(AuthenticationSuccessEvent)
	authFailure           []func(AuthenticationFailureEvent)
	logout                []func(LogoutEvent)
}

func NewSignals() *Signals {
	return &Signals{}
}

func (s *Signals) OnRegistrationSubmitted(fn func(RegistrationSubmittedEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrationSubmitted = append(s.registrationSubmitted, fn)
}

func (s *Signals) OnAccountConfirmed(fn func(AccountConfirmedEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountConfirmed = append(s.accountConfirmed, fn)
}

func (s *Signals) OnAuthenticationSuccess(fn func(AuthenticationSuccessEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authSuccess = append(s.authSuccess, fn)
}

func (s *Signals) OnAuthenticationFailure(fn func(AuthenticationFailureEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailure = append(s.authFailure, fn)
}

func (s *Signals) OnLogout(fn func(LogoutEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logout = append(s.logout, fn)
}

func (s *Signals) EmitRegistrationSubmitted(evt RegistrationSubmittedEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.registrationSubmitted {
		fn(evt)
	}
}

func (s *Signals) EmitAccountConfirmed(evt AccountConfirmedEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.accountConfirmed {
		fn(evt)
	}
}

func (s *Signals) EmitAuthenticationSuccess(evt AuthenticationSuccessEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.authSuccess {
		fn(evt)
	}
}

func (s *Signals) EmitAuthenticationFailure(evt AuthenticationFailureEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.authFailure {
		fn(evt)
	}
}

func (s *Signals) EmitLogout(evt LogoutEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.logout {
		fn(evt)
	}
}
