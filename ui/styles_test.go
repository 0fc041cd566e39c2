package ui_test

import (
	"bytes"
	"errors"
	"testing"

	"dailydigest/digest"
	"dailydigest/models"
	"dailydigest/ui"

	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	ui.PrintReport(&buf, digest.Report{
		RunID:    "run-1",
		Digest:   models.Digest{Title: "Daily Digest"},
		TextPath: "out/DailyDigest_2024-03-01.txt",
		Failed:   []models.Section{models.Failed("weather", "Weather", models.ReasonTimeout, nil)},
		MailErr:  errors.New("connection refused"),
	})

	out := buf.String()
	assert.Contains(t, out, "Daily Digest")
	assert.Contains(t, out, "Weather unavailable (timeout)")
	assert.Contains(t, out, "out/DailyDigest_2024-03-01.txt written.")
	assert.Contains(t, out, "Failed to send email: connection refused")
	assert.NotContains(t, out, "Email sent")
}

func TestPrintReportMailSent(t *testing.T) {
	var buf bytes.Buffer
	ui.PrintReport(&buf, digest.Report{MailSent: true})
	assert.Contains(t, buf.String(), "Email sent successfully!")
}
