package usermanagement

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ConfirmAccountMessage struct {
	Token      string `json:"token" doc:"Opaque activation token from the emailed link."`
	OnResponse func(resp *ConfirmAccountResponse)
}

func (e ConfirmAccountMessage) Type() string { return "registration.confirm" }

type ConfirmAccountResponse struct {
	Found   bool
	Expired bool
	Success bool
	User    Identity
}

// ConfirmAccountHandler consumes a registration flow: it materializes the
// real account through the UserCreationService and deletes the flow. The
// deletion is unconditional once the token checks out, it happens even when
// user creation errors on a duplicate account. An expired flow is reported
// but retained, only a later submit or a valid confirmation removes it.
type ConfirmAccountHandler struct {
	Repo    RepositoryManager
	Users   UserCreationService
	Config  Config
	Signals *Signals
	Logger  Logger

	// Now overrides the clock used for expiry checks. Nil means time.Now.
	Now func() time.Time
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	resp := &ConfirmAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var userErr error
	var confirmed *RegistrationFlow

	err := h.Repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		flow, err := h.Repo.Flows().FindOneByTokenTx(ctx, tx, event.Token)
		if err != nil {
			if IsFlowNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve registration flow")
		}

		resp.Found = true

		if !flow.HasValidActivationToken(h.now(), h.Config.ActivationTokenTTL) {
			resp.Expired = true
			return nil
		}

		var user Identity
		user, userErr = h.Users.CreateUserAndAccount(ctx, flow)

		// the flow is consumed regardless of the user creation outcome; a
		// duplicate-account error therefore leaves no flow to retry with
		if err := h.Repo.Flows().RemoveTx(ctx, tx, flow); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove confirmed registration flow")
		}

		if userErr != nil {
			return nil
		}

		resp.User = user
		resp.Success = true
		confirmed = flow
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account confirmation transaction failed")
	}

	if userErr != nil {
		return goerrors.Wrap(userErr, goerrors.CategoryConflict, "could not create user from confirmed registration flow")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	// subscribers only ever see committed confirmations
	if resp.Success {
		h.Signals.EmitAccountConfirmed(AccountConfirmedEvent{Flow: confirmed, User: resp.User})
	}

	return nil
}

func (h *ConfirmAccountHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
