package ui

import (
	"fmt"
	"io"

	"dailydigest/digest"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#2DA44E") // Green
	warningColor = lipgloss.Color("#D29922") // Orange
	errorColor   = lipgloss.Color("#CF222E") // Red
	dimColor     = lipgloss.Color("#6E7681") // Gray
	titleColor   = lipgloss.Color("#39D353") // Bright green

	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Foreground(titleColor).
			Bold(true)
)

func Success(msg string) string { return SuccessStyle.Render("✅ " + msg) }

func Warning(msg string) string { return WarningStyle.Render("⚠️ " + msg) }

func Failure(msg string) string { return ErrorStyle.Render("❌ " + msg) }

// PrintReport writes one status line per run stage
func PrintReport(w io.Writer, report digest.Report) {
	fmt.Fprintln(w, TitleStyle.Render(report.Digest.Title)+" "+DimStyle.Render(report.RunID))

	for _, section := range report.Failed {
		fmt.Fprintln(w, Warning(fmt.Sprintf("%s unavailable (%s)", section.Title, section.Reason)))
	}

	switch {
	case report.PersistErr != nil:
		fmt.Fprintln(w, Failure("Failed to save digest: "+report.PersistErr.Error()))
	case report.TextPath != "":
		fmt.Fprintln(w, Success(report.TextPath+" written."))
	}
	if report.HTMLPath != "" {
		fmt.Fprintln(w, Success(report.HTMLPath+" updated."))
	}

	switch {
	case report.MailSent:
		fmt.Fprintln(w, Success("Email sent successfully!"))
	case report.MailSkipped:
		fmt.Fprintln(w, Warning("Email skipped: no SMTP password."))
	case report.MailErr != nil:
		fmt.Fprintln(w, Failure("Failed to send email: "+report.MailErr.Error()))
	}
}
