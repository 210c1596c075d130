// Package ui holds the terminal styling shared by annotrack commands.
package ui

import (
	"github.com/pterm/pterm"
)

func Green(a any) string {
	return pterm.LightGreen(a)
}

func Cyan(a any) string {
	return pterm.LightCyan(a)
}

func Yellow(a any) string {
	return pterm.LightYellow(a)
}

func Red(a any) string {
	return pterm.LightRed(a)
}

func Highlight(a any) string {
	return pterm.LightWhite(a)
}
