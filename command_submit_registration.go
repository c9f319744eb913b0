package usermanagement

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SubmitRegistrationMessage struct {
	Email      string         `json:"email" example:"pepe.rone@example.com" doc:"Registrant email, the deduplication key."`
	Password   string         `json:"password" doc:"Raw password, hashed before the flow is stored."`
	Attributes map[string]any `json:"attributes" doc:"Free-form registrant supplied fields, forwarded to user creation."`
	OnResponse func(resp *SubmitRegistrationResponse)
}

func (e SubmitRegistrationMessage) Type() string { return "registration.submit" }

type SubmitRegistrationResponse struct {
	Flow           *RegistrationFlow
	MailDispatched bool
	Success        bool
}

// SubmitRegistrationHandler creates a registration flow, superseding every
// earlier flow for the same email, then dispatches the activation email.
// Email dispatch is best-effort: a failed send never rolls back the persisted
// flow, re-registering issues a fresh token instead.
type SubmitRegistrationHandler struct {
	Repo    RepositoryManager
	Mailer  Mailer
	Links   LinkResolver
	Config  Config
	Signals *Signals
	Logger  Logger
}

func (h *SubmitRegistrationHandler) Execute(ctx context.Context, event SubmitRegistrationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration submit",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitRegistrationHandler) execute(ctx context.Context, event SubmitRegistrationMessage) error {
	flow := NewRegistrationFlow(event.Email, event.Password, event.Attributes)
	resp := &SubmitRegistrationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.Repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// superseding semantics: every prior flow for this email goes away,
		// expired or not
		existing, err := h.Repo.Flows().FindByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up existing registration flows")
		}

		for _, old := range existing {
			if err := h.Repo.Flows().RemoveTx(ctx, tx, old); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove superseded registration flow")
			}
		}

		if err := flow.StoreEncryptedPassword(); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		if flow, err = h.Repo.Flows().CreateTx(ctx, tx, flow); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create registration flow")
		}

		resp.Flow = flow
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration submit transaction failed")
	}

	resp.MailDispatched = h.sendActivationEmail(ctx, resp.Flow)
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	h.Signals.EmitRegistrationSubmitted(RegistrationSubmittedEvent{Flow: resp.Flow})

	return nil
}

func (h *SubmitRegistrationHandler) sendActivationEmail(ctx context.Context, flow *RegistrationFlow) bool {
	logger := h.logger()

	if h.Mailer == nil {
		logger.Debug("no mailer configured, skipping activation email for %s", flow.Email)
		return false
	}

	activationLink := ""
	if h.Links != nil {
		link, err := h.Links.BuildAbsoluteURI(
			"activateAccount",
			map[string]any{"token": flow.ActivationToken},
			"Registration",
		)
		if err != nil {
			logger.Error("failed to build activation link: %v", err)
		} else {
			activationLink = link
		}
	}

	err := h.Mailer.SendTemplateEmail(
		ctx,
		"ActivationToken",
		h.Config.Email.SubjectActivation,
		[]string{flow.Email},
		map[string]any{
			"activationLink":   activationLink,
			"registrationFlow": flow,
		},
		h.Config.Email.SenderAddress,
		nil, // cc
		nil, // bcc
		nil, // attachments
		h.Config.Email.ReplyToAddress,
	)
	if err != nil {
		logger.Error("failed to dispatch activation email: %v", err)
		return false
	}

	return true
}

func (h *SubmitRegistrationHandler) logger() Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return defLogger{}
}
