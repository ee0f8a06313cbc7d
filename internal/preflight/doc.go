// Package preflight provides readiness checks for the filesystem paths,
// stores, and provider credentials that shortforge depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to start when a
//     required check fails.
//   - The CLI "shortforge doctor" command uses RunAll to display
//     environment health before an operator schedules real runs.
//
// Credential checks are gated on the stub toggle: a stub-only setup needs
// no API keys, so those checks are skipped entirely.
package preflight
