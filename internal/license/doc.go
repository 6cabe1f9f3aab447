// Package license gates premium icons on a periodic entitlement check.
//
// # Components
//
//	- ActivationState: process-wide flag read by icon providers
//	- Verifier: tri-state entitlement oracle (Licensed, Unlicensed, Unknown)
//	- RemoteVerifier: license server client
//	- TokenVerifier: offline EdDSA-signed license token
//	- ChainVerifier: first conclusive verdict wins
//	- Scheduler: resolves the installed plugin type once and, for paid
//	  editions, re-checks the license on a fixed-rate timer
//
// # Check Flow
//
// On Start the scheduler resolves the installed plugin type. Editions that do
// not require a license are left alone. Otherwise the activation flag is set
// and a check is scheduled after the initial delay, then every period:
//
//	1. Ask the verifier for a verdict
//	2. Unknown: log and keep the current state
//	3. Licensed: keep the current state
//	4. Unlicensed: deactivate, broadcast an icon refresh, prompt the user
//
// A deactivated license is not re-enabled by a later successful check unless
// ReactivateOnSuccess is set.
//
// # Failure Policy
//
// The check fails open. Setup failures and panics leave the license activated,
// and a failing tick never cancels the timer.
package license
