// Package tui implements the jeebot terminal user interface.
//
// It is built with Charmbracelet's BubbleTea, Lipgloss, Bubbles and
// Glamour libraries. Three routes share one root model and are switched
// in-process:
//
//	model.go     root model, routing, Init/Update/View
//	theme.go     centralized color + style definitions
//	header.go    top bar with route tabs, footer with key hints
//	chat.go      chat transcript, typing reveal, OCR uploads
//	quiz.go      subject and chapter selection, questions, solutions
//	dashboard.go performance summary
//	helpers.go   math span rendering, bars, truncation
package tui
