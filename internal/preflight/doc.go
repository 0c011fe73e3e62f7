// Package preflight provides readiness checks for the inputs and external
// tools an export depends on.
//
// The CLI "mipexport check" command runs RunAll to show what is missing
// before an export is attempted. The exporter performs its own fail-fast
// checks at run time using Requirements, so both agree on which tools are
// needed.
package preflight
