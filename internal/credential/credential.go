// Package credential stores proxy passwords outside the manifest.
//
// Passwords go to the system keychain first (macOS Keychain, libsecret,
// Windows Credential Manager via go-keyring). When no keychain is available,
// for example in CI or containers, storage falls back to a 0600 file under
// ~/.bastion. Files with looser permissions are refused on read since the
// secret may have been exposed.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// ServiceName is the default keyring service identifier. Override with
// BASTION_KEYRING_SERVICE for test isolation.
const ServiceName = "bastion"

// ErrNotFound is returned when no password is stored for a username.
var ErrNotFound = errors.New("credential not found")

// ErrInsecurePermissions is returned when the fallback file is readable by
// other users.
var ErrInsecurePermissions = errors.New("credential file has insecure permissions")

func serviceName() string {
	if name := os.Getenv("BASTION_KEYRING_SERVICE"); name != "" {
		return name
	}
	return ServiceName
}

func account(username string) string {
	return "proxy:" + username
}

// GetProxyPassword returns the stored proxy password for username, checking
// the system keychain first and the file fallback second.
func GetProxyPassword(username string) (string, error) {
	if pw, err := keyring.Get(serviceName(), account(username)); err == nil {
		return pw, nil
	}

	path, err := fallbackPath(username)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no proxy password stored for %q", ErrNotFound, username)
		}
		return "", fmt.Errorf("reading credential file: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return "", fmt.Errorf("%w: %s has permissions %04o (expected 0600), fix with: chmod 600 %s",
			ErrInsecurePermissions, path, perm, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading credential file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetProxyPassword stores a proxy password for username, preferring the
// system keychain and falling back to a 0600 file.
func SetProxyPassword(username, password string) error {
	keychainErr := keyring.Set(serviceName(), account(username), password)
	if keychainErr == nil {
		return nil
	}

	path, err := fallbackPath(username)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(password), 0600); err != nil {
		return fmt.Errorf("storing proxy password failed.\n  Keychain: %v\n  File (%s): %v",
			keychainErr, path, err)
	}
	return nil
}

// DeleteProxyPassword removes a stored proxy password from both backends.
// It succeeds if either backend held the credential.
func DeleteProxyPassword(username string) error {
	path, err := fallbackPath(username)
	if err != nil {
		return err
	}

	keychainErr := keyring.Delete(serviceName(), account(username))
	fileErr := os.Remove(path)
	if keychainErr == nil || fileErr == nil {
		return nil
	}
	if errors.Is(keychainErr, keyring.ErrNotFound) && os.IsNotExist(fileErr) {
		return fmt.Errorf("%w: no proxy password stored for %q", ErrNotFound, username)
	}
	return fmt.Errorf("deleting credential: keychain: %v; file: %v", keychainErr, fileErr)
}

// fallbackPath returns the fallback credential file for username. The home
// directory is required: temp directories may be world-readable or shared.
func fallbackPath(username string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		if envHome := os.Getenv("HOME"); envHome != "" {
			home = envHome
		} else {
			return "", fmt.Errorf("determining home directory for credential storage: %w", err)
		}
	}
	name := fmt.Sprintf("%s.%s.cred", serviceName(), sanitize(username))
	return filepath.Join(home, ".bastion", "credentials", name), nil
}

// sanitize keeps usernames filesystem-safe.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
