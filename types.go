package usermanagement

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of the account produced by user creation
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// UserCreationService materializes the real user account from a confirmed
// registration flow. Implementations live in the host application; they may
// error on duplicates, this package does not retry.
type UserCreationService interface {
	CreateUserAndAccount(ctx context.Context, flow *RegistrationFlow) (Identity, error)
}

// Mailer delivers templated notification emails. Delivery is best-effort from
// the caller's perspective, this package never retries a failed send.
type Mailer interface {
	SendTemplateEmail(
		ctx context.Context,
		templateName string,
		subject string,
		recipients []string,
		templateData map[string]any,
		senderAddress string,
		cc []string,
		bcc []string,
		attachments []Attachment,
		replyToAddress string,
	) error
}

// Attachment is an email attachment passed through to the Mailer.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// LinkResolver builds URIs for routes and application content. The content
// variant backs the "redirect after login/logout" hints attached to a request.
type LinkResolver interface {
	BuildAbsoluteURI(routeName string, params map[string]any, controllerGroup string) (string, error)
	ResolveContentURI(ctx context.Context, contentHint string) (string, error)
}

// Authenticator is the narrow surface of the host authentication subsystem
// consumed by the HTTP controller.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) error
	Logout(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERMGMT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERMGMT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERMGMT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
