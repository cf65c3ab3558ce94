package notify

const notifierBinary = "notify-send"

func platformNotify(title, message string) error {
	return runNotifier(notifierBinary, "--app-name=aibudget", title, message)
}
