package usermanagement

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config carries every static setting consumed by this package. Hosts build
// one at startup, call Validate once, and pass it into the constructors.
type Config struct {
	// AuthFailedMessage is the fixed user-facing notice shown on failed
	// authentication. The underlying error detail is never exposed.
	AuthFailedMessage FailureMessageConfig

	// RedirectAfterLogin and RedirectAfterLogout are optional static route
	// destinations. A spec only applies when fully specified, partial specs
	// are ignored by the resolver.
	RedirectAfterLogin  RedirectSpec
	RedirectAfterLogout RedirectSpec

	Email EmailConfig

	// ActivationTokenTTL bounds how long an activation token stays valid.
	ActivationTokenTTL time.Duration

	// LoginRoute is the in-application destination used when a logout has no
	// other target. Defaults to "login".
	LoginRoute string
}

type FailureMessageConfig struct {
	Title string
	Body  string
}

// EmailConfig holds the settings for the activation email.
type EmailConfig struct {
	SubjectActivation string
	SenderAddress     string
	ReplyToAddress    string
}

// RedirectSpec is a static in-application redirect destination.
type RedirectSpec struct {
	Controller          string
	Action              string
	Package             string
	ControllerArguments map[string]any
}

// IsComplete reports whether controller, action and package are all present.
// Only complete specs participate in redirect resolution.
func (r RedirectSpec) IsComplete() bool {
	return r.Controller != "" && r.Action != "" && r.Package != ""
}

// Validate will run validation rules
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.ActivationTokenTTL, validation.Required),
		validation.Field(&c.AuthFailedMessage, validation.Required),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.AuthFailedMessage,
		validation.Field(&c.AuthFailedMessage.Title, validation.Required),
		validation.Field(&c.AuthFailedMessage.Body, validation.Required),
	); err != nil {
		return err
	}

	return validation.ValidateStruct(&c.Email,
		validation.Field(&c.Email.SubjectActivation, validation.Required),
		validation.Field(&c.Email.SenderAddress, validation.Required, is.Email),
		validation.Field(&c.Email.ReplyToAddress, is.Email),
	)
}

// WithDefaults fills the optional fields that have sensible defaults.
func (c Config) WithDefaults() Config {
	if c.LoginRoute == "" {
		c.LoginRoute = "login"
	}
	return c
}
