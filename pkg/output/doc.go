// Package output renders build progress and results for the terminal.
//
// Styles are read from an embedded YAML file and applied with lipgloss.
// Color is dropped when the writer is not a terminal, when NO_COLOR is set
// or when the caller asks for plain output.
package output
