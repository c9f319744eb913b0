package usermanagement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegistrationFlow is the pending registration record between form submission
// and account activation. The email acts as the natural deduplication key: at
// most one live flow exists per address, enforced by SubmitRegistrationHandler
// superseding earlier rows.
type RegistrationFlow struct {
	bun.BaseModel `bun:"table:registration_flows,alias:regf"`

	ID    uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email string    `bun:"email,notnull" json:"email,omitempty"`

	// RawPassword only exists between construction and StoreEncryptedPassword.
	// It is never serialized or persisted.
	RawPassword  string `bun:"-" json:"-"`
	PasswordHash string `bun:"password_hash,notnull" json:"-"`

	ActivationToken string         `bun:"activation_token,notnull,unique" json:"-"`
	Attributes      map[string]any `bun:"attributes" json:"attributes,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewRegistrationFlow builds a flow with a fresh activation token. The raw
// password is kept transiently until StoreEncryptedPassword is called.
func NewRegistrationFlow(email, rawPassword string, attributes map[string]any) *RegistrationFlow {
	now := time.Now()
	return &RegistrationFlow{
		Email:           email,
		RawPassword:     rawPassword,
		ActivationToken: NewActivationToken(),
		Attributes:      attributes,
		CreatedAt:       &now,
	}
}

// StoreEncryptedPassword replaces the transient raw password with its bcrypt
// hash. It must be called exactly once before the flow is persisted; a second
// call fails because the raw value is already gone.
func (f *RegistrationFlow) StoreEncryptedPassword() error {
	hash, err := HashPassword(f.RawPassword)
	if err != nil {
		return err
	}
	f.PasswordHash = hash
	f.RawPassword = ""
	return nil
}

// HasValidActivationToken reports whether the token is still inside the
// configured time-to-live at the given reference time. It never mutates the
// flow, expiry stays advisory until a submit supersedes the row or a
// confirmation consumes it.
func (f *RegistrationFlow) HasValidActivationToken(now time.Time, ttl time.Duration) bool {
	if f.CreatedAt == nil {
		return false
	}
	return IsWithinThresholdPeriodAt(now, *f.CreatedAt, ttl)
}

// NewActivationToken generates an opaque unguessable token suitable for use
// in an activation link.
func NewActivationToken() string {
	token := uuid.NewString() + uuid.NewString()
	return strings.ReplaceAll(token, "-", "")
}
