// Package testutil provides shared helpers for alphawave's tests: context
// builders with automatic cleanup, message and JSON assertions, and polling
// assertions for asynchronous conditions.
//
// Subpackages:
//
//   - testutil/mocks: mock implementations of the completion model, the
//     transcript store and the audit writer.
//   - testutil/fixtures: canned model outputs and schemas for validator and
//     wave tests.
package testutil
