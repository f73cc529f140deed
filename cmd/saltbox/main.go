// Package main provides the CLI entry point for saltbox.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/postalsys/saltbox/internal/armor"
	"github.com/postalsys/saltbox/internal/config"
	"github.com/postalsys/saltbox/internal/keyring"
	"github.com/postalsys/saltbox/internal/logging"
	"github.com/postalsys/saltbox/internal/metrics"
	"github.com/postalsys/saltbox/internal/saltpack"
	"github.com/postalsys/saltbox/internal/service"
	"github.com/postalsys/saltbox/internal/svcinstall"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "saltbox",
		Short:   "saltbox - authenticated multi-recipient encryption",
		Version: Version,
		Long: `saltbox implements the saltpack encryption mode: X25519 key
agreement, XSalsa20-Poly1305 authenticated encryption, and per-recipient
HMAC-SHA-512 authenticators, in two wire-compatible major versions.`,
	}

	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(serviceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolvePrivateKey interprets ref as a 64-character hex private key, or,
// failing that, as a path to a keyring file. Sealed keyring files prompt
// for a passphrase on the controlling terminal.
func resolvePrivateKey(ref string) ([32]byte, error) {
	var key [32]byte
	if raw, err := hex.DecodeString(ref); err == nil && len(raw) == 32 {
		copy(key[:], raw)
		return key, nil
	}

	if !keyring.Exists(ref) {
		return key, fmt.Errorf("%s is neither a 64-character hex key nor an existing keyring file", ref)
	}

	_, priv, err := keyring.Load(ref, "")
	if err == nil {
		return priv, nil
	}
	if err != keyring.ErrWrongPassphrase {
		return key, err
	}

	passphrase, err := promptPassphrase(fmt.Sprintf("Passphrase for %s: ", ref))
	if err != nil {
		return key, err
	}
	_, priv, err = keyring.Load(ref, passphrase)
	return priv, err
}

// resolvePublicKey interprets ref as a 64-character hex public key, or,
// failing that, as a path to a keyring file (reading only its public half).
func resolvePublicKey(ref string) ([32]byte, error) {
	var key [32]byte
	if raw, err := hex.DecodeString(ref); err == nil && len(raw) == 32 {
		copy(key[:], raw)
		return key, nil
	}

	if !keyring.Exists(ref) {
		return key, fmt.Errorf("%s is neither a 64-character hex key nor an existing keyring file", ref)
	}

	pub, _, err := keyring.Load(ref, "")
	if err != nil && err != keyring.ErrWrongPassphrase {
		return key, err
	}
	return pub, nil
}

func promptPassphrase(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("passphrase required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(pwBytes), nil
}

func keygenCmd() *cobra.Command {
	var out string
	var passphrasePrompt bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new X25519 keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := keyring.Generate()
			if err != nil {
				return err
			}

			var passphrase string
			if passphrasePrompt {
				first, err := promptPassphrase("New passphrase: ")
				if err != nil {
					return err
				}
				second, err := promptPassphrase("Confirm passphrase: ")
				if err != nil {
					return err
				}
				if first != second {
					return fmt.Errorf("passphrases do not match")
				}
				passphrase = first
			}

			if err := keyring.Save(out, pub, priv, passphrase); err != nil {
				return err
			}

			fmt.Printf("Wrote keypair to %s\n", out)
			fmt.Printf("Public key: %s\n", hex.EncodeToString(pub[:]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "./saltbox.key", "Path to write the keyring file")
	cmd.Flags().BoolVar(&passphrasePrompt, "passphrase-prompt", false, "Prompt for a passphrase to seal the private key")

	return cmd
}

func encryptCmd() *cobra.Command {
	var sender string
	var recipients []string
	var chunkSize int
	var majorVersion int
	var visibleRecipients bool
	var useArmor bool
	var message string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a message for one or more recipients",
		RunE: func(cmd *cobra.Command, args []string) error {
			senderPrivate, err := resolvePrivateKey(sender)
			if err != nil {
				return fmt.Errorf("--sender: %w", err)
			}

			if len(recipients) == 0 {
				return fmt.Errorf("at least one --recipient is required")
			}
			recipientKeys := make([][32]byte, len(recipients))
			for i, r := range recipients {
				rk, err := resolvePublicKey(r)
				if err != nil {
					return fmt.Errorf("--recipient %q: %w", r, err)
				}
				recipientKeys[i] = rk
			}

			var plaintext []byte
			if message != "" {
				plaintext = []byte(message)
			} else {
				plaintext, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read message from stdin: %w", err)
				}
			}

			ciphertext, err := saltpack.Encrypt(senderPrivate, recipientKeys, plaintext, chunkSize, saltpack.Options{
				MajorVersion:      majorVersion,
				VisibleRecipients: visibleRecipients,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "encrypted %s to %s for %d recipient(s)\n",
				humanize.Bytes(uint64(len(plaintext))), humanize.Bytes(uint64(len(ciphertext))), len(recipientKeys))

			if useArmor {
				fmt.Println(armor.Armor(ciphertext, "ENCRYPTED MESSAGE"))
				return nil
			}
			_, err = os.Stdout.Write(ciphertext)
			return err
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "Sender private key, as hex or a keyring file path")
	cmd.Flags().StringArrayVar(&recipients, "recipient", nil, "Recipient public key, as hex or a keyring file path (repeatable)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1<<20, "Payload chunk size in bytes")
	cmd.Flags().IntVar(&majorVersion, "major-version", 2, "Wire format major version (1 or 2)")
	cmd.Flags().BoolVar(&visibleRecipients, "visible-recipients", false, "Include recipient public keys in the header in the clear")
	cmd.Flags().BoolVar(&useArmor, "armor", false, "Write ASCII-armored output instead of raw bytes")
	cmd.Flags().StringVar(&message, "message", "", "Message to encrypt (default: read from stdin)")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func decryptCmd() *cobra.Command {
	var recipient string
	var useArmor bool

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a message addressed to the given recipient key",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipientPrivate, err := resolvePrivateKey(recipient)
			if err != nil {
				return fmt.Errorf("--recipient: %w", err)
			}

			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read ciphertext from stdin: %w", err)
			}

			ciphertext := raw
			if useArmor {
				dearmored, _, err := armor.Dearmor(string(raw))
				if err != nil {
					return fmt.Errorf("dearmor input: %w", err)
				}
				ciphertext = dearmored
			}

			plaintext, err := saltpack.Decrypt(ciphertext, recipientPrivate)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "decrypted %s to %s\n", humanize.Bytes(uint64(len(ciphertext))), humanize.Bytes(uint64(len(plaintext))))

			_, err = os.Stdout.Write(plaintext)
			return err
		},
	}

	cmd.Flags().StringVar(&recipient, "recipient", "", "Recipient private key, as hex or a keyring file path")
	cmd.Flags().BoolVar(&useArmor, "armor", false, "Read ASCII-armored input instead of raw bytes")
	_ = cmd.MarkFlagRequired("recipient")

	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string
	var listen string
	var metricsListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the saltbox HTTP encryption service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if listen != "" {
				cfg.Service.Address = listen
			}
			if metricsListen != "" {
				cfg.Service.MetricsAddress = metricsListen
			}

			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
			m := metrics.Default()

			srv := service.NewServer(cfg.Service, logger, m, cfg.Default.ChunkSize)
			if err := srv.Start(); err != nil {
				return fmt.Errorf("start service: %w", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Info("received shutdown signal", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown service: %w", err)
			}

			logger.Info("saltbox service stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&listen, "listen", "", "Data listen address (overrides config)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Metrics listen address (overrides config)")

	return cmd
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage saltbox as a platform service",
	}

	cmd.AddCommand(serviceInstallCmd())
	cmd.AddCommand(serviceUninstallCmd())
	cmd.AddCommand(serviceStatusCmd())

	return cmd
}

func serviceInstallCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install saltbox serve as a system service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !svcinstall.IsSupported() {
				return fmt.Errorf("service management is not supported on %s", runtime.GOOS)
			}
			if !svcinstall.IsRoot() {
				return fmt.Errorf("must run as root/administrator to install the service")
			}

			cfg := svcinstall.DefaultConfig(configPath)
			if err := svcinstall.Install(cfg); err != nil {
				return err
			}

			fmt.Printf("\nService %q installed.\n", cfg.Name)
			switch runtime.GOOS {
			case "linux":
				fmt.Println("Manage it with: systemctl status saltbox")
			case "darwin":
				fmt.Println("Manage it with: launchctl list com.saltbox")
			case "windows":
				fmt.Println("Manage it with: sc query saltbox")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func serviceUninstallCmd() *cobra.Command {
	var name string
	var force bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the saltbox system service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !svcinstall.IsSupported() {
				return fmt.Errorf("service management is not supported on %s", runtime.GOOS)
			}
			if !svcinstall.IsRoot() {
				return fmt.Errorf("must run as root/administrator to uninstall the service")
			}
			if !svcinstall.IsInstalled(name) {
				fmt.Printf("Service %q is not installed.\n", name)
				return nil
			}

			if !force {
				fmt.Printf("This will stop and remove the %q service. Continue? [y/N]: ", name)
				var response string
				fmt.Scanln(&response)
				if !strings.EqualFold(response, "y") && !strings.EqualFold(response, "yes") {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := svcinstall.Uninstall(name); err != nil {
				return err
			}
			fmt.Println("Service uninstalled successfully.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "saltbox", "Service name")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func serviceStatusCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saltbox system service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !svcinstall.IsSupported() {
				return fmt.Errorf("service management is not supported on %s", runtime.GOOS)
			}
			if !svcinstall.IsInstalled(name) {
				fmt.Printf("Service %q is not installed.\n", name)
				return nil
			}

			status, err := svcinstall.Status(name)
			if err != nil {
				return err
			}
			fmt.Printf("Service: %s\n", name)
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("Platform: %s\n", svcinstall.Platform())
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "saltbox", "Service name")

	return cmd
}
