// Package session orchestrates a generated form across its lifecycle.
//
// A create session starts Idle with synthesized defaults. An update session
// starts in LoadingInitial, applies the fetched record on Load and becomes
// Ready; SetID switches records and discards fetches for the previous one.
// Submit moves through Submitting exclusively and returns to the resting
// state whether the boundary succeeds or fails.
//
// The session talks to the outside through small interfaces: Querier for
// reads, Mutator for writes and Cache for invalidation. Host rendering choices
// live in HostConfig and are passed explicitly with WithHost.
package session
