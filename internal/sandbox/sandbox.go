// Package sandbox reports whether the current process is running inside a
// sandboxed execution environment. Sandboxed processes must never egress
// through a proxy; the HTTP client factory consumes this flag as an opaque
// input.
package sandbox

import "os"

// Markers set in the environment of sandboxed child processes.
// SANDBOX_RUNTIME is the convention shared with other sandbox runtimes;
// BASTION_SANDBOX is bastion's own marker.
const (
	MarkerEnv       = "BASTION_SANDBOX"
	LegacyMarkerEnv = "SANDBOX_RUNTIME"
)

// Detect reports sandbox mode from an environment snapshot. A marker set to
// anything except "" or "0" means sandboxed.
func Detect(env func(key string) string) bool {
	for _, key := range []string{MarkerEnv, LegacyMarkerEnv} {
		if v := env(key); v != "" && v != "0" {
			return true
		}
	}
	return false
}

// Active reports sandbox mode from the live process environment.
func Active() bool {
	return Detect(os.Getenv)
}
