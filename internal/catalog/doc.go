// Package catalog talks to the TMDB v3 API.
//
// Client wraps the four endpoints the matcher needs (movie and person search,
// movie and person details with credits appended) plus a configuration ping.
// Every request passes through a shared Gate so that the whole process keeps a
// fixed pause between TMDB calls. Non-2xx responses surface as *CatalogError;
// the client never retries.
package catalog
