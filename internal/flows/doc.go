// Package flows executes the outbound HTTP calls the root client
// orchestrates. Root builds a [Deps] once and delegates every request to
// [Do]; this package owns request construction, header attachment, and the
// translation of HTTP error statuses into classification inputs. It makes
// no retry, normalization, or presentation decisions — those belong to the
// root package and its leaf packages.
package flows
