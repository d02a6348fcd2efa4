// Package canvas ties the deterministic tile path together: chunk
// resolution, backend page fetching, and sector population.
//
// A Canvas answers "what content sits at grid cell (col, row)" by locating
// the owning chunk, resolving the chunk's backend page, fetching that page
// (deduplicating concurrent fetches for the same page), and populating the
// chunk's sector through the store. Resolved tiles are stable for the life
// of the process; roaming far away and back yields the same content.
package canvas
