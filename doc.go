// Package ledgerclient is the session and request layer of the supply-chain
// ledger portal: it establishes an authenticated identity, issues calls to
// the ledger backend, normalizes the backend's inconsistent response
// encodings, and collapses every failure mode into one displayable error.
//
// View code stays a thin renderer: it asks the [Client] for data and shows
// either the normalized payload or the classified message.
//
// # Architecture boundaries
//
// ledgerclient is the public surface. It exposes [Client], [Builder],
// [Config], and value types. Request execution lives under internal/ and is
// never exported. Leaf concerns have their own packages:
//
//   - session — the persisted identity and its change notifications
//   - normalize — response shape tolerance
//   - apierror — failure classification
//   - gate — protected-view admission
//   - token — unverified bearer-token inspection
//
// # What this package must NOT do
//
//   - Retry a failed call. Calls are user-triggered; every failure is
//     surfaced exactly once to the caller.
//   - Recover an error on the caller's behalf. The client annotates and
//     forwards; presentation decisions belong to the view.
//   - Render anything or hold view state beyond the per-action busy flag.
package ledgerclient
