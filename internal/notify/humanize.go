package notify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Humanize turns a snake_case identifier (status, role, change kind) into
// display text for rendered notifications: "final_payment_approval" ->
// "Final Payment Approval".
func Humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
