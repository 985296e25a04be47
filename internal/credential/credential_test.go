package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeychainRoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BASTION_KEYRING_SERVICE", "bastion-test")
	t.Setenv("HOME", t.TempDir())

	if err := SetProxyPassword("alice", "s3cret"); err != nil {
		t.Fatalf("SetProxyPassword: %v", err)
	}

	pw, err := GetProxyPassword("alice")
	if err != nil {
		t.Fatalf("GetProxyPassword: %v", err)
	}
	if pw != "s3cret" {
		t.Errorf("password = %q, want %q", pw, "s3cret")
	}

	if err := DeleteProxyPassword("alice"); err != nil {
		t.Fatalf("DeleteProxyPassword: %v", err)
	}
	if _, err := GetProxyPassword("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProxyPassword after delete: %v, want ErrNotFound", err)
	}
}

func TestGetNotFound(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BASTION_KEYRING_SERVICE", "bastion-test")
	t.Setenv("HOME", t.TempDir())

	if _, err := GetProxyPassword("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProxyPassword: %v, want ErrNotFound", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BASTION_KEYRING_SERVICE", "bastion-test")
	t.Setenv("HOME", t.TempDir())

	if err := DeleteProxyPassword("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProxyPassword: %v, want ErrNotFound", err)
	}
}

func TestFileFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain available"))
	t.Setenv("BASTION_KEYRING_SERVICE", "bastion-test")
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := SetProxyPassword("bob", "hunter2"); err != nil {
		t.Fatalf("SetProxyPassword: %v", err)
	}

	path := filepath.Join(home, ".bastion", "credentials", "bastion-test.bob.cred")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat fallback file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("fallback file permissions = %04o, want 0600", perm)
	}

	pw, err := GetProxyPassword("bob")
	if err != nil {
		t.Fatalf("GetProxyPassword: %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("password = %q, want %q", pw, "hunter2")
	}

	if err := DeleteProxyPassword("bob"); err != nil {
		t.Fatalf("DeleteProxyPassword: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("fallback file survived delete")
	}
}

func TestFileFallbackInsecurePermissions(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain available"))
	t.Setenv("BASTION_KEYRING_SERVICE", "bastion-test")
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := SetProxyPassword("carol", "pw"); err != nil {
		t.Fatalf("SetProxyPassword: %v", err)
	}
	path := filepath.Join(home, ".bastion", "credentials", "bastion-test.carol.cred")
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := GetProxyPassword("carol"); !errors.Is(err, ErrInsecurePermissions) {
		t.Errorf("GetProxyPassword: %v, want ErrInsecurePermissions", err)
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"alice":           "alice",
		"user@corp":       "user_corp",
		"has/slash":       "has_slash",
		"dots.and-dashes": "dots.and-dashes",
	}
	for in, want := range cases {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
