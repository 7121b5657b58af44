// Package mmsys defines the protocol constants shared by every layer of the
// command engine: message ids, per-command flag words, status and capability
// items, return-encoding tags and the core resource string table.
//
// Values follow the legacy multimedia control numbering so that binary callers
// and existing drivers interoperate without translation tables.
package mmsys
