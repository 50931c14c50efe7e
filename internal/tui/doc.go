// Package tui is the terminal client of the support desk: a bubbletea
// program rendering a workspace as a ticket list and a chat pane.
// Terminals narrower than the mobile breakpoint show one pane at a time
// and switch between them through the workspace navigator.
package tui
