// Package cmdtable loads, validates and caches the per-device-type command
// grammar.
//
// A command table is a flat stream of entries. Each entry is a NUL-terminated
// name, a little-endian 32-bit flag word and a little-endian 16-bit kind.
// Entries form verb runs that start at a CommandHead and end at an
// EndCommand; the stream ends at an EndCommandList:
//
//	"play"   0x0806  command_head
//	"notify" 0x0001  flag
//	"from"   0x0004  integer
//	""       0       end_command
//	""       0       end_command_list
//
// An optional Return entry directly after a CommandHead declares what the
// verb hands back (integer, string or rect) and so how many leading
// parameter-block slots are reserved.
//
// Tables are decoded once per device type by a Store and are immutable
// afterwards. Verb lookup through FindVerb is exact and case-preserving.
package cmdtable
