package usermanagement

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterUserManagementRoutes wires the login, logout, registration and
// activation endpoints into the given router.
func RegisterUserManagementRoutes[T any](app router.Router[T], opts ...ControllerOption) {

	controller := NewController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Activate), controller.ActivateAccount).
		SetName("activate.get")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.Activate), controller.ConfirmAccount).
		SetName("activate.post")
}

type ControllerRoutes struct {
	Login    string
	Logout   string
	Register string
	Activate string
}

type ControllerViews struct {
	Login    string
	Logout   string
	Register string
	Activate string
	Confirm  string
}

// Controller is the thin HTTP layer over the registration lifecycle and the
// redirect resolver. Everything interesting happens in the handlers and the
// RedirectTargetService; this type only maps requests and view states.
type Controller struct {
	Debug     bool
	Logger    Logger
	Repo      RepositoryManager
	Config    Config
	Routes    *ControllerRoutes
	Views     *ControllerViews
	Auther    Authenticator
	Redirects RedirectTargetService
	Mailer    Mailer
	Links     LinkResolver
	Users     UserCreationService
	Signals   *Signals

	ErrorHandler router.ErrorHandler
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Signals:      NewSignals(),
		Routes: &ControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
			Activate: "/activate",
		},
		Views: &ControllerViews{
			Login:    "login",
			Logout:   "logout",
			Register: "register",
			Activate: "activate",
			Confirm:  "confirm",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in usermanagement controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in usermanagement controller...")
	}

	if c.Redirects == nil {
		panic("Missing RedirectTargetService in usermanagement controller...")
	}

	return c
}

func WithControllerConfig(config Config) ControllerOption {
	return func(c *Controller) *Controller {
		c.Config = config.WithDefaults()
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithControllerAuthenticator(auther Authenticator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Auther = auther
		return c
	}
}

func WithControllerRedirects(redirects RedirectTargetService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Redirects = redirects
		return c
	}
}

func WithControllerMailer(mailer Mailer) ControllerOption {
	return func(c *Controller) *Controller {
		c.Mailer = mailer
		return c
	}
}

func WithControllerLinks(links LinkResolver) ControllerOption {
	return func(c *Controller) *Controller {
		c.Links = links
		return c
	}
}

func WithControllerUserCreation(users UserCreationService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Users = users
		return c
	}
}

func WithControllerSignals(signals *Signals) ControllerOption {
	return func(c *Controller) *Controller {
		c.Signals = signals
		return c
	}
}

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

func (a *Controller) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	ForwardURL string `form:"forwardUrl" json:"forwardUrl"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *Controller) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	req := a.redirectRequest(ctx, payload.ForwardURL)

	if err := a.Auther.Login(ctx.Context(), payload.Identifier, payload.Password); err != nil {
		a.Signals.EmitAuthenticationFailure(AuthenticationFailureEvent{
			Identifier: payload.Identifier,
			Err:        err,
		})

		notice := a.Redirects.OnAuthenticationFailure(ctx.Context(), req, err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record": payload,
			"notice": notice,
		})
	}

	a.Signals.EmitAuthenticationSuccess(AuthenticationSuccessEvent{
		Identifier: payload.Identifier,
	})

	target, err := a.Redirects.OnAuthenticationSuccess(ctx.Context(), req)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if target == nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"authenticated": true,
			"record":        payload,
		})
	}

	return a.applyRedirect(ctx, target)
}

func (a *Controller) LogOut(ctx router.Context) error {
	if err := a.Auther.Logout(ctx.Context()); err != nil {
		a.Logger.Error("logout error: ", "error", err)
	}

	a.Signals.EmitLogout(LogoutEvent{})

	target, err := a.Redirects.OnLogout(ctx.Context(), a.redirectRequest(ctx, ""))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if target == nil {
		// a logout always lands somewhere
		return ctx.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	return a.applyRedirect(ctx, target)
}

// applyRedirect enforces the three sanctioned result shapes. Anything else is
// a programming error in a custom RedirectTargetService and aborts the
// request.
func (a *Controller) applyRedirect(ctx router.Context, target RedirectTarget) error {
	switch target := target.(type) {
	case URITarget:
		return ctx.Redirect(string(target), fiber.StatusSeeOther)
	case RouteTarget:
		uri, err := a.Links.BuildAbsoluteURI(target.Action, target.Arguments, target.ControllerGroup())
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}
		return ctx.Redirect(uri, fiber.StatusSeeOther)
	default:
		return a.ErrorHandler(ctx, goerrors.Wrap(
			ErrInvalidRedirectResult,
			goerrors.CategoryInternal,
			fmt.Sprintf("unexpected redirect target %T", target),
		))
	}
}

func (a *Controller) redirectRequest(ctx router.Context, forwardURL string) RedirectRequest {
	if forwardURL == "" {
		forwardURL = ctx.Query("forwardUrl", "")
	}

	return RedirectRequest{
		ForwardURL:        forwardURL,
		LoginContentHint:  ctx.Query("redirectAfterLogin", ""),
		LogoutContentHint: ctx.Query("redirectAfterLogout", ""),
	}
}

func (a *Controller) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegistrationCreatePayload{},
	})
}

// RegistrationCreatePayload is the form paylaod
type RegistrationCreatePayload struct {
	Email           string         `form:"email" json:"email"`
	Password        string         `form:"password" json:"password"`
	ConfirmPassword string         `form:"confirm_password" json:"confirm_password"`
	Attributes      map[string]any `form:"attributes" json:"attributes"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *Controller) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var resp *SubmitRegistrationResponse
	submit := SubmitRegistrationHandler{
		Repo:    a.Repo,
		Mailer:  a.Mailer,
		Links:   a.Links,
		Config:  a.Config,
		Signals: a.Signals,
		Logger:  a.Logger,
	}

	msg := SubmitRegistrationMessage{
		Email:      payload.Email,
		Password:   payload.Password,
		Attributes: payload.Attributes,
		OnResponse: func(r *SubmitRegistrationResponse) {
			resp = r
		},
	}

	if err := submit.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register submit error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error submitting registration",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Check your inbox for the activation link",
	}).Render(a.Views.Register, router.ViewContext{
		"registrationFlow": resp.Flow,
		"submitted":        true,
	})
}

// ActivateAccount handles the activation link visit. It never mutates the
// flow, visiting the link twice renders the same state.
func (a *Controller) ActivateAccount(ctx router.Context) error {
	token := ctx.Param("token")

	var resp *VerifyActivationTokenResponse
	verify := VerifyActivationTokenHandler{
		Repo:   a.Repo,
		Config: a.Config,
	}

	msg := VerifyActivationTokenMessage{
		Token: token,
		OnResponse: func(r *VerifyActivationTokenResponse) {
			resp = r
		},
	}

	if err := verify.Execute(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !resp.Found {
		return ctx.Render(a.Views.Activate, router.ViewContext{
			"tokenNotFound": true,
		})
	}

	if resp.Expired {
		return ctx.Render(a.Views.Activate, router.ViewContext{
			"tokenTimeout": true,
		})
	}

	return ctx.Render(a.Views.Activate, router.ViewContext{
		"token": token,
	})
}

func (a *Controller) ConfirmAccount(ctx router.Context) error {
	token := ctx.Param("token")

	var resp *ConfirmAccountResponse
	confirm := ConfirmAccountHandler{
		Repo:    a.Repo,
		Users:   a.Users,
		Config:  a.Config,
		Signals: a.Signals,
		Logger:  a.Logger,
	}

	msg := ConfirmAccountMessage{
		Token: token,
		OnResponse: func(r *ConfirmAccountResponse) {
			resp = r
		},
	}

	if err := confirm.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("confirm account error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if !resp.Found {
		return ctx.Render(a.Views.Confirm, router.ViewContext{
			"tokenNotFound": true,
		})
	}

	if resp.Expired {
		return ctx.Render(a.Views.Confirm, router.ViewContext{
			"tokenTimeout": true,
		})
	}

	return ctx.Render(a.Views.Confirm, router.ViewContext{
		"success": true,
		"user":    resp.User,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field→message map for view rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
