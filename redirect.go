package usermanagement

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// defaultAuthFailureCode is the notice code used when authentication failed
// without a specific error attached.
const defaultAuthFailureCode = 1347016771

// RedirectTarget is the result of redirect resolution. Exactly three shapes
// are sanctioned: URITarget, RouteTarget, or nil meaning no redirect. Callers
// must treat any other implementation as ErrInvalidRedirectResult.
type RedirectTarget interface {
	isRedirectTarget()
}

// URITarget is a plain URI destination, absolute or relative.
type URITarget string

func (URITarget) isRedirectTarget() {}

// RouteTarget is a structured in-application destination.
type RouteTarget struct {
	Controller string
	Action     string
	Package    string
	Arguments  map[string]any
}

func (RouteTarget) isRedirectTarget() {}

// ControllerGroup renders the package qualified controller reference consumed
// by LinkResolver.BuildAbsoluteURI.
func (t RouteTarget) ControllerGroup() string {
	if t.Package == "" {
		return t.Controller
	}
	if t.Controller == "" {
		return t.Package
	}
	return t.Package + "." + t.Controller
}

// FailureNotice is the fixed user-facing message rendered after a failed
// authentication. It never carries the underlying error detail.
type FailureNotice struct {
	Title string
	Body  string
	Code  int
}

// RedirectRequest carries the per-request signals consulted during redirect
// resolution: a caller supplied forward URL and optional content hints
// attached to the current request.
type RedirectRequest struct {
	ForwardURL        string
	LoginContentHint  string
	LogoutContentHint string
}

// RedirectTargetService decides where the user lands after an
// authentication-related event.
type RedirectTargetService interface {
	OnAuthenticationSuccess(ctx context.Context, req RedirectRequest) (RedirectTarget, error)
	OnAuthenticationFailure(ctx context.Context, req RedirectRequest, authErr error) FailureNotice
	OnLogout(ctx context.Context, req RedirectRequest) (RedirectTarget, error)
}

type redirectTargetService struct {
	config Config
	links  LinkResolver
	logger Logger
}

var _ RedirectTargetService = (*redirectTargetService)(nil)

type RedirectTargetServiceOption func(*redirectTargetService)

func WithRedirectLogger(logger Logger) RedirectTargetServiceOption {
	return func(s *redirectTargetService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedirectTargetService builds the default resolver: static configuration
// wins over per-request signals, per-request signals win over doing nothing.
func NewRedirectTargetService(config Config, links LinkResolver, opts ...RedirectTargetServiceOption) RedirectTargetService {
	svc := &redirectTargetService{
		config: config.WithDefaults(),
		links:  links,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}

	return svc
}

// OnAuthenticationSuccess evaluates, in order: the static afterLogin route
// spec, the request forward URL, the login content hint. Returns nil when
// none applies so the caller can render the post-login view in place.
func (s *redirectTargetService) OnAuthenticationSuccess(ctx context.Context, req RedirectRequest) (RedirectTarget, error) {
	if s.config.RedirectAfterLogin.IsComplete() {
		return routeTargetFromSpec(s.config.RedirectAfterLogin), nil
	}

	if req.ForwardURL != "" {
		return URITarget(SanitizeForwardURL(req.ForwardURL)), nil
	}

	if req.LoginContentHint != "" {
		uri, err := s.links.ResolveContentURI(ctx, req.LoginContentHint)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve login content hint")
		}
		return URITarget(uri), nil
	}

	return nil, nil
}

// OnAuthenticationFailure always yields a notice; the notice code comes from
// the error when one is attached and falls back to a fixed code otherwise, so
// authentication internals never leak to the user.
func (s *redirectTargetService) OnAuthenticationFailure(_ context.Context, _ RedirectRequest, authErr error) FailureNotice {
	code := defaultAuthFailureCode
	if authErr != nil {
		var richErr *goerrors.Error
		if goerrors.As(authErr, &richErr) && richErr.Code != 0 {
			code = int(richErr.Code)
		}
	}

	return FailureNotice{
		Title: s.config.AuthFailedMessage.Title,
		Body:  s.config.AuthFailedMessage.Body,
		Code:  code,
	}
}

// OnLogout evaluates the static afterLogout route spec, then the logout
// content hint, and finally falls back to the login view. Unlike the success
// path it never returns nil: a logout always lands somewhere.
func (s *redirectTargetService) OnLogout(ctx context.Context, req RedirectRequest) (RedirectTarget, error) {
	if s.config.RedirectAfterLogout.IsComplete() {
		return routeTargetFromSpec(s.config.RedirectAfterLogout), nil
	}

	if req.LogoutContentHint != "" {
		uri, err := s.links.ResolveContentURI(ctx, req.LogoutContentHint)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve logout content hint")
		}
		return URITarget(uri), nil
	}

	return RouteTarget{Action: s.config.LoginRoute}, nil
}

func routeTargetFromSpec(spec RedirectSpec) RouteTarget {
	return RouteTarget{
		Controller: spec.Controller,
		Action:     spec.Action,
		Package:    spec.Package,
		Arguments:  spec.ControllerArguments,
	}
}

// forwardURLAllowed is the character set kept by URL sanitization, matching
// PHP's FILTER_SANITIZE_URL. This is syntax cleanup only: callers needing
// open-redirect protection must add an explicit allow-list on top.
const forwardURLAllowed = "$-_.+!*'(),{}|\\^~[]`<>#%\";/?:@&="

// SanitizeForwardURL strips every character that cannot appear in a URL.
func SanitizeForwardURL(forwardURL string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		if strings.ContainsRune(forwardURLAllowed, r) {
			return r
		}
		return -1
	}, forwardURL)
}
