package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the client. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	StatusOpen   lipgloss.Color
	StatusSolved lipgloss.Color

	OwnMessage   lipgloss.Color
	OtherMessage lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
}

var DarkTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),
	StatusOpen:         lipgloss.Color("114"),
	StatusSolved:       lipgloss.Color("245"),
	OwnMessage:         lipgloss.Color("117"),
	OtherMessage:       lipgloss.Color("252"),
	HeaderForeground:   lipgloss.Color("75"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
	ErrorText:          lipgloss.Color("203"),
}

var LightTheme = Theme{
	NormalText:         lipgloss.Color("235"),
	FaintText:          lipgloss.Color("244"),
	SelectedBackground: lipgloss.Color("254"),
	SelectedForeground: lipgloss.Color("16"),
	StatusOpen:         lipgloss.Color("28"),
	StatusSolved:       lipgloss.Color("242"),
	OwnMessage:         lipgloss.Color("25"),
	OtherMessage:       lipgloss.Color("235"),
	HeaderForeground:   lipgloss.Color("26"),
	BorderColor:        lipgloss.Color("250"),
	HelpText:           lipgloss.Color("245"),
	ErrorText:          lipgloss.Color("160"),
}

func ThemeFor(dark bool) Theme {
	if dark {
		return DarkTheme
	}
	return LightTheme
}

func (theme Theme) StatusColor(solved bool) lipgloss.Color {
	if solved {
		return theme.StatusSolved
	}
	return theme.StatusOpen
}
