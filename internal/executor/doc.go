// Package executor implements a breadth-first, batch-friendly GraphQL executor
// with explicit runtime hooks for synchronous resolution, depth-wise batching of
// asynchronous work, abstract-type resolution, and leaf serialization.
//
// # Execution model
//
// Fields are classified by schema.Field.Async:
//
//   - Synchronous fields are projections of the parent value. They are
//     resolved immediately via Runtime.ResolveSync and their sub-selections
//     expand in the same depth.
//   - Asynchronous fields need I/O (a loader or storage call). They are queued
//     and resolved together by one Runtime.BatchResolveAsync call per depth.
//
// The loop is:
//
//	A. Expand the root selection set. Sync fields complete inline, async
//	   fields become pending tasks.
//	B. While tasks are pending: drop tasks below nullified paths, hand the rest
//	   to BatchResolveAsync, then complete each result. Completion may expand
//	   further sync fields and queue the next depth's tasks.
//
// Every async field reachable at a depth is therefore known before the runtime
// is called. Runtimes use this boundary as the end of a scheduling turn: the
// graph runtime runs a depth's tasks as tracked goroutines and its batch
// loaders dispatch once all of them are parked or finished.
//
// Mutations differ only at the root: each root field is sent to the runtime
// on its own, in document order.
//
// # Per-operation state
//
// A Runtime that implements RequestScoper receives BeginRequest before any
// field runs, and the returned context is passed to every later call for the
// operation. This is where request-scoped caches belong.
//
// # Errors
//
// Resolver errors are recorded with their response path and the field becomes
// null. A null in a Non-Null position propagates to the nearest nullable
// ancestor, sync or async alike; with no such ancestor the root field becomes
// null. Async fields queued below a nulled position are never resolved.
// Execution always returns whatever data was completed alongside the error
// list.
//
// # Cancellation
//
// The context is checked before every depth. Once it is done the remaining
// tasks fail with its error and their fields become null.
//
// # Inputs
//
// Variables and arguments are coerced against the schema, including input
// objects and enums. Custom scalar input goes through Runtime.ParseLeafValue
// when the runtime implements LeafParser.
package executor
