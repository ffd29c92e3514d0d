// Package viz provides terminal visualisation of spin fields.
//
// The package renders read-only snapshots and hosts the interactive TUI
// built on Bubble Tea:
//
//   - [Quiver]: one arrow glyph per site, coloured by sz with lipgloss
//   - [Model]: live relaxation view stepping the driver each tick
//   - [RunInteractive]: preset picker and parameter editor in front of [Model]
//   - Theme selection with 5 built-in colour schemes
//
// # Key Bindings
//
//	Space - Pause/Resume relaxation
//	R     - Randomise the field
//	T     - Cycle colour themes
//	+/-   - Double/halve accepted moves per tick
//	?     - Show help overlay
//	Q     - Quit
package viz
