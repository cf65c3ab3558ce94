//go:build !darwin

package keyring

import "errors"

var errNoKeychain = errors.New("keyring: no OS keychain on this platform")

func keychainGet(string, string) (string, error) { return "", errNoKeychain }
func keychainSet(string, string, string) error   { return errNoKeychain }
func keychainDelete(string, string) error        { return nil }
