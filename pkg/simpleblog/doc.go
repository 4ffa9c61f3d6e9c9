// Package simpleblog provides the core of a small multi-user publishing
// site: tagged posts, comments, paginated listings and ownership checks.
//
// It exposes a single Service interface that orchestrates listing, creating,
// updating and deleting posts and comments on top of a pluggable Repository.
// Implementations of repositories (memory, Postgres, MongoDB) are provided
// under the repo subpackages.
//
// # Identity
//
// The acting user is always passed explicitly (actorID) into every operation.
// The package never reads session state. IDs are opaque strings and are
// compared in canonical form (see CanonicalID), so a UUID or ObjectID that
// reaches the service through different representations still matches.
//
// # Pagination
//
// Every listing calls Paginate. Results are sliced only when the total count
// exceeds the page size; shorter result sets are returned whole as page 1 of 1.
package simpleblog
