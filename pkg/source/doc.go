// Package source talks to the finite, paginated remote collection backing
// the canvas.
//
// It contains the three backend-facing pieces of the engine:
//
//   - Resolver folds the infinite chunk space onto the backend's page space,
//     so each chunk deterministically requests one page no matter when or
//     how often it is visited.
//   - Client fetches pages over HTTP with retry and response caching; the
//     record shape beyond {records, total_pages} is opaque and carried
//     through as raw JSON.
//   - Feed turns fetched pages into an endless stream of records with
//     process-unique ids, which is what the masonry layout engine consumes.
//
// All blocking operations take a context.Context.
package source
