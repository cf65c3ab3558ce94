package keyring

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// keychainGet reads a generic password from the macOS Keychain via the
// security tool.
func keychainGet(service, account string) (string, error) {
	out, err := exec.Command("security", "find-generic-password",
		"-s", service, "-a", account, "-w").Output()
	if err != nil {
		return "", errors.New("keyring: key not found")
	}
	return strings.TrimSpace(string(out)), nil
}

func keychainSet(service, account, password string) error {
	// -U updates an existing item instead of failing on duplicates.
	cmd := exec.Command("security", "add-generic-password",
		"-s", service, "-a", account, "-w", password, "-U")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.New("keyring: storing key: " + strings.TrimSpace(stderr.String()))
	}
	return nil
}

func keychainDelete(service, account string) error {
	cmd := exec.Command("security", "delete-generic-password",
		"-s", service, "-a", account)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return classifyDeleteFailure(stderr.String())
	}
	return nil
}

// classifyDeleteFailure maps security's stderr to an error. A missing
// item exits non-zero too and counts as already deleted; anything else,
// such as a locked keychain, is a real failure.
func classifyDeleteFailure(stderr string) error {
	if strings.Contains(stderr, "could not be found") {
		return nil
	}
	return errors.New("keyring: deleting key: " + strings.TrimSpace(stderr))
}
