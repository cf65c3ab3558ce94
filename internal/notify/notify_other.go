//go:build !darwin && !linux

package notify

import "errors"

const notifierBinary = ""

func platformNotify(string, string) error {
	return errors.New("notify: no desktop notifier on this platform")
}
