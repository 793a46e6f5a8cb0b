// Package cache stores rendered pages for reuse across requests.
//
// A page opts in by calling SetCacheResponse on its render context; the
// SSR handler then keys the serialized document by request (see Key) and
// serves it from the Store until the entry expires.
//
// Three backends are provided:
//   - MemoryStore: process-local map, for development and tests
//   - SQLiteStore: a single-file database shared by restarts
//   - S3Store: objects in a bucket, shared by every replica
package cache
