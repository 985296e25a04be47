package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/bastionhq/bastion/internal/config"
	"github.com/bastionhq/bastion/internal/credential"
	"github.com/bastionhq/bastion/internal/httpclient"
	"github.com/bastionhq/bastion/internal/sandbox"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var proxyCheck bool

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Show the effective outbound proxy resolution",
	Long: `Show which proxy (if any) bastion's outbound HTTP clients will use
for each scheme, given the current manifest, environment, and sandbox state.

Precedence per scheme, highest to lowest:
  sandbox-disable > bastion.yaml proxy > environment variable > no proxy

Environment fallback uses HTTP_PROXY, HTTPS_PROXY, and SOCKS_PROXY.`,
	RunE: showProxy,
}

var proxySetPasswordCmd = &cobra.Command{
	Use:   "set-password <username>",
	Short: "Store a proxy password in the system keychain",
	Long: `Store the proxy password for a username in the system keychain
(or a restricted file under ~/.bastion when no keychain is available).

The manifest then only needs proxy.username; the password is looked up
at client construction time and never written to bastion.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: setProxyPassword,
}

var proxyDeletePasswordCmd = &cobra.Command{
	Use:   "delete-password <username>",
	Short: "Remove a stored proxy password",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteProxyPassword,
}

func init() {
	proxyCmd.Flags().BoolVar(&proxyCheck, "check", false, "also construct a client to surface configuration errors")

	proxyCmd.AddCommand(proxySetPasswordCmd)
	proxyCmd.AddCommand(proxyDeletePasswordCmd)
	rootCmd.AddCommand(proxyCmd)
}

// effectiveProxyConfig loads the proxy settings the client factory will see:
// the project manifest's proxy block, the global config's as fallback, with
// a keychain-stored password filled in when the manifest omits one.
func effectiveProxyConfig(dir string) (*config.ProxyConfig, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	var proxy *config.ProxyConfig
	if cfg != nil && cfg.Proxy != nil {
		proxy = cfg.Proxy
	} else {
		globalCfg, err := config.LoadGlobal()
		if err != nil {
			return nil, err
		}
		proxy = globalCfg.Proxy
	}

	if proxy != nil && proxy.Username != "" && proxy.Password == "" {
		pw, err := credential.GetProxyPassword(proxy.Username)
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			filled := *proxy
			filled.Password = pw
			proxy = &filled
		}
	}

	return proxy, nil
}

func showProxy(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	proxy, err := effectiveProxyConfig(dir)
	if err != nil {
		return err
	}

	sandboxed := sandbox.Active()
	sel, err := httpclient.Resolve(proxy, httpclient.OSEnviron(), sandboxed)
	if err != nil {
		return err
	}

	if proxyCheck {
		if _, err := httpclient.New(httpclient.Options{
			Proxy:     proxy,
			Sandboxed: sandboxed,
			UserAgent: "bastion/" + Version(),
		}); err != nil {
			return fmt.Errorf("client construction: %w", err)
		}
	}

	if sandboxed {
		fmt.Println("Sandboxed execution: all proxies disabled")
	}
	fmt.Print(renderSelection(sel))
	return nil
}

// renderSelection formats the per-scheme proxy table. Credentials are
// redacted.
func renderSelection(sel httpclient.Selection) string {
	var b strings.Builder
	row := func(scheme string, u *url.URL) {
		if u == nil {
			fmt.Fprintf(&b, "  %-6s direct\n", scheme)
			return
		}
		fmt.Fprintf(&b, "  %-6s %s\n", scheme, u.Redacted())
	}
	row("http", sel.HTTP)
	row("https", sel.HTTPS)
	row("socks", sel.SOCKS)
	return b.String()
}

func setProxyPassword(cmd *cobra.Command, args []string) error {
	username := args[0]

	fmt.Fprintf(os.Stderr, "Password for proxy user %q: ", username)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return fmt.Errorf("password cannot be empty")
	}

	if err := credential.SetProxyPassword(username, string(pw)); err != nil {
		return err
	}
	fmt.Printf("Stored proxy password for %q\n", username)
	return nil
}

func deleteProxyPassword(cmd *cobra.Command, args []string) error {
	username := args[0]
	if err := credential.DeleteProxyPassword(username); err != nil {
		return err
	}
	fmt.Printf("Removed proxy password for %q\n", username)
	return nil
}
