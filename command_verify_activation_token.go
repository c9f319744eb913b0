package usermanagement

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyActivationTokenMessage struct {
	Token      string `json:"token" doc:"Opaque activation token from the emailed link."`
	OnResponse func(resp *VerifyActivationTokenResponse)
}

func (e VerifyActivationTokenMessage) Type() string { return "registration.verify_token" }

type VerifyActivationTokenResponse struct {
	Found   bool
	Expired bool
	Flow    *RegistrationFlow
}

// VerifyActivationTokenHandler backs the activation-link visit. It reports
// whether the token resolves to a flow and whether that flow is still inside
// its TTL, without mutating anything, so the visit is idempotent.
type VerifyActivationTokenHandler struct {
	Repo   RepositoryManager
	Config Config

	// Now overrides the clock used for expiry checks. Nil means time.Now.
	Now func() time.Time
}

func (h *VerifyActivationTokenHandler) Execute(ctx context.Context, event VerifyActivationTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during activation token verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyActivationTokenHandler) execute(ctx context.Context, event VerifyActivationTokenMessage) error {
	resp := &VerifyActivationTokenResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	flow, err := h.Repo.Flows().FindOneByToken(ctx, event.Token)
	if err != nil {
		// an unknown token is part of the expected flow, not an application
		// error, and stays indistinguishable from an already consumed one
		if IsFlowNotFound(err) {
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve registration flow")
	}

	resp.Found = true
	resp.Flow = flow
	resp.Expired = !flow.HasValidActivationToken(h.now(), h.Config.ActivationTokenTTL)

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *VerifyActivationTokenHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
