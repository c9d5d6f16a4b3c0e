// Package execution is the root of storedb's query execution engine.
//
// The engine uses the open/next (volcano) model: every operator implements
// the common DbIterator contract — Open, HasNext, Next, Rewind, Close,
// GetTupleDesc. Operators are composed into a tree; pulling tuples from the
// root drives the entire pipeline without materialising intermediate
// results.
//
// # Sub-packages
//
//   - [storedb/pkg/execution/join] – nested-loop join over a predicate.
//
// # Execution flow
//
// A caller constructs an operator tree (SeqScan, Project, Join, or one of the
// mutating executors) bound to a transaction context, opens it, and pulls
// tuples until HasNext reports false. Mutating executors acquire their locks and perform
// index maintenance as part of their own open/next cycle rather than as a
// separate phase.
package execution
