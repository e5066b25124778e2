// Package testutil provides deterministic doubles for tests: a manually
// advanced clock and an in-memory messenger that records every outbound
// call.
package testutil
