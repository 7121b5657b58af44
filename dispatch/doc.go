// Package dispatch routes commands to drivers.
//
// A Dispatcher takes either a binary Call, whose parameter block already
// sits in the caller's address space, or a parser.Invocation produced from
// a command string. It resolves the target session, answers OPEN, CLOSE,
// SYSINFO and BREAK itself, and delivers everything else to the session's
// driver.
//
// # Conventions
//
// Callers and drivers each use one of two parameter block layouts. When
// they differ, the block is converted by the transcoder before delivery and
// converted back afterwards:
//
//	caller (flat)   -> ToLegacy -> session's legacy address space -> driver
//	caller (legacy) -> ToFlat   -> pooled scratch arena            -> driver
//
// # Lifecycle
//
// Every call moves through the states Resolving, Marshaling, Sent,
// Unmarshaling and Formatting before it is Done or Failed. An Observer sees
// each transition; the package logger records them at debug level.
//
// # Replies
//
// FormatReturn turns a reply into text using the command's return type and
// the return-encoding tag in the driver result. Send strips that tag for
// binary callers.
package dispatch
