// Package usermanagement provides self-service registration with email
// activation plus post-authentication redirect resolution.
//
// Registration lifecycle:
//   - A RegistrationFlow is the pending record between form submission and
//     account activation. Submitting for an email supersedes every earlier
//     flow for that email, so at most one live flow exists per address.
//   - Flows carry an opaque single-use activation token. Expiry is a computed
//     predicate against a configured TTL; expired rows are only removed when a
//     later submit supersedes them or a confirmation consumes them.
//   - ConfirmAccountHandler hands a valid flow to a UserCreationService and
//     deletes the flow afterwards. The actual user/account model belongs to
//     the host application, not to this package.
//
// Redirect resolution:
//   - RedirectTargetService decides where a request lands after a successful
//     login, a failed login, or a logout. Static route configuration wins over
//     per-request signals (forward URL, content hints). Results are either a
//     plain URI, an in-application route, or nothing; consumers must treat any
//     other shape as a programming error.
//
// Signals:
//   - Signals is a small callback registry publishing lifecycle events
//     (submit, confirm, login success/failure, logout) so host applications
//     can observe the flows without coupling to a dispatch mechanism.
package usermanagement
