// Package errors turns library errors into coded, actionable messages for
// the shadow CLI.
//
// Every sentinel exported by pkg/reactive, pkg/shadow, pkg/ssr and
// pkg/cache maps to a code. FromError finds the code for a wrapped error
// chain; Format renders it for a terminal:
//
//	errors.PrintError(os.Stderr, err, "E141")
//	// Output:
//	// ERROR E040: Node cannot be restored
//	//
//	//   shadow: restore is not implemented for node type: comment
//	//
//	//   Only element and text nodes can be adopted from server-rendered markup.
//	//
//	//   Hint: Remove comments and other non-element nodes from the hydrated subtree
//	//
//	//   Learn more: https://github.com/vango-dev/shadow/blob/main/docs/errors.md#e040
//
// # Error Categories
//
//   - reactive: signal, effect and scheduler misuse
//   - render: shadow node reconciliation
//   - hydration: adopting server-rendered markup
//   - server, cache, config, cli: the serving host and command line
package errors
