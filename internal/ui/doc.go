// Package ui holds the terminal presentation pieces of the vorax CLI: the
// color palette and symbols, a single-line spinner shown while a statement
// runs, Bubbles tables for profile listings, and a Bubble Tea profile
// picker.
//
// Colors are true-color hex values that lipgloss degrades to the terminal's
// profile. DisableColors switches everything to plain text for --no-color.
package ui
