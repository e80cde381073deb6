// Package wireguard wraps the wg(8) control surface: peer add/remove,
// status dump parsing and keypair generation.
package wireguard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// CommandError carries the combined diagnostic output of a failed wg
// invocation. Key material never appears in it.
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("wg error: %s :: %s", e.Cmd, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Controller invokes the wg binary. Privileged subcommands run under sudo,
// which is expected to be NOPASSWD-scoped to this one binary. Every call is
// bounded by a timeout so a wedged control surface cannot hang a worker.
type Controller struct {
	bin     string
	iface   string
	timeout time.Duration
}

func NewController() *Controller {
	bin := os.Getenv("WG_BIN")
	if bin == "" {
		bin = "/usr/bin/wg"
	}

	iface := os.Getenv("WG_INTERFACE")
	if iface == "" {
		iface = "wg0"
	}

	timeout := 10 * time.Second
	if envTimeout := os.Getenv("WG_CMD_TIMEOUT"); envTimeout != "" {
		if d, err := time.ParseDuration(envTimeout); err == nil {
			timeout = d
		}
	}

	return &Controller{bin: bin, iface: iface, timeout: timeout}
}

func (c *Controller) Interface() string {
	return c.iface
}

func (c *Controller) run(ctx context.Context, elevated bool, stdin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := c.bin
	argv := args
	if elevated {
		name = "sudo"
		argv = append([]string{c.bin}, args...)
	}

	cmd := exec.CommandContext(ctx, name, argv...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		return "", &CommandError{
			Cmd:    name + " " + strings.Join(argv, " "),
			Output: output,
			Err:    err,
		}
	}

	return stdout.String(), nil
}

// AddPeer applies a peer to the live interface.
func (c *Controller) AddPeer(ctx context.Context, publicKey, allowedIPs string, keepalive *int) error {
	if _, err := wgtypes.ParseKey(publicKey); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	args := []string{"set", c.iface, "peer", publicKey, "allowed-ips", allowedIPs}
	if keepalive != nil {
		args = append(args, "persistent-keepalive", strconv.Itoa(*keepalive))
	}

	_, err := c.run(ctx, true, "", args...)
	return err
}

// RemovePeer removes a peer from the live interface.
func (c *Controller) RemovePeer(ctx context.Context, publicKey string) error {
	if _, err := wgtypes.ParseKey(publicKey); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	_, err := c.run(ctx, true, "", "set", c.iface, "peer", publicKey, "remove")
	return err
}

// Show returns the raw status dump of all peers.
func (c *Controller) Show(ctx context.Context) (string, error) {
	return c.run(ctx, true, "", "show")
}

// Status returns the parsed live peer state keyed by public key.
func (c *Controller) Status(ctx context.Context) (map[string]PeerStatus, error) {
	out, err := c.Show(ctx)
	if err != nil {
		return nil, err
	}
	return ParseStatus(out), nil
}

// GenerateKeypair creates a fresh private key and derives its public key.
// Neither command needs elevated privilege. The caller owns the private key;
// it must never be persisted server-side.
func (c *Controller) GenerateKeypair(ctx context.Context) (privateKey, publicKey string, err error) {
	priv, err := c.run(ctx, false, "", "genkey")
	if err != nil {
		return "", "", err
	}
	priv = strings.TrimSpace(priv)

	pub, err := c.run(ctx, false, priv, "pubkey")
	if err != nil {
		return "", "", err
	}
	pub = strings.TrimSpace(pub)

	if _, err := wgtypes.ParseKey(priv); err != nil {
		return "", "", fmt.Errorf("generated private key is malformed: %w", err)
	}
	if _, err := wgtypes.ParseKey(pub); err != nil {
		return "", "", fmt.Errorf("derived public key is malformed: %w", err)
	}

	return priv, pub, nil
}
