// Package parser turns command strings into parameter blocks.
//
// A command line is a verb, a device name and arguments:
//
//	play mysound from 100 to 2000 notify
//	open "c:\my sounds\ding.wav" type waveaudio alias ding
//	put movie at 0 0 320 240
//
// The verb is matched exactly against the session's command table, the
// device type's table and the core table, in that order. Argument keywords
// are matched ignoring case, and each matched entry fills the block slot
// fixed by its position in the table. Quoted tokens run to the next quote
// and must be followed by a space or the end of the line.
//
// ParseOptions can be used on its own with any decoded command.
package parser
