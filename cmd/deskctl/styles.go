package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/satheeshds/driverdesk/indicator"
)

var (
	primaryColor = lipgloss.Color("63")
	mutedColor   = lipgloss.Color("245")
	successColor = lipgloss.Color("42")
	warnColor    = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(primaryColor).Padding(0, 1)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	successStyle  = lipgloss.NewStyle().Foreground(successColor)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)
)

// badge renders a status pair with its traffic-light colour.
func badge(deliveryStatus, paymentStatus string) string {
	color := errorColor
	switch indicator.For(deliveryStatus, paymentStatus) {
	case indicator.Green:
		color = successColor
	case indicator.Yellow:
		color = warnColor
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + deliveryStatus + " / " + paymentStatus)
}
