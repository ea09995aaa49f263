// Package wire defines the ASCII command protocol spoken by ESI R2D7
// shade controllers.
//
// The controller only understands relative motion: "run motor for N
// twentieths of a second in direction D". Every command is a statement
// starting with '*' and terminated by ';'.
//
// # Command Format
//
//	*<address><direction><unit:2 digits><duration:3 digits>;   move
//	*<address>s<unit:2 digits>;                                stop
//
// The address is a single unpadded decimal digit (1-7). Units are
// zero-padded to two digits (01-60) and durations to three (001-999).
//
// # Dialects
//
// Two transport dialects exist for the same controller family:
//   - RawDialect: direct socket to the serial server. Every move is
//     followed by an explicit stop command.
//   - LineDialect: telnet-style line session. A single move command
//     terminated by a newline.
//
// Both dialects map a positive duration to DirectionOpen.
package wire
