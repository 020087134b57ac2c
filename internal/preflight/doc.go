// Package preflight provides readiness checks for the filesystem paths and
// kernel facilities dropsort depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll before opening the watch. Any failed check
//     aborts startup so a misconfigured root is reported instead of watched.
//   - The CLI "dropsort status" command renders the same results as a table.
package preflight
