// Package engine exposes the test-execution engine's operations as a typed
// client over a dispatch gateway: run control, configuration-document
// loading, and global-constant mutation on the current test configuration.
package engine
