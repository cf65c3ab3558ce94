package notify

import "strings"

const notifierBinary = "osascript"

func platformNotify(title, message string) error {
	script := `display notification "` + escapeAppleScript(message) +
		`" with title "` + escapeAppleScript(title) + `"`
	return runNotifier(notifierBinary, "-e", script)
}

// escapeAppleScript escapes backslashes and quotes for embedding in an
// AppleScript string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
