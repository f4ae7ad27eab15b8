package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/plotkit/sessiontoken"
	"github.com/plotkit/sessiontoken/crypt/secure"
	"github.com/plotkit/sessiontoken/log"
	"github.com/plotkit/sessiontoken/token"
	"github.com/plotkit/sessiontoken/utils"
)

const errInvalidSignature = utils.Error("token signature is invalid")

var (
	flagLogLevel   string
	flagLogFile    string
	flagSigned     bool
	flagSecret     string
	flagSecretFile string
	flagAskSecret  bool
	flagExtra      []string
)

func main() {
	root := &cobra.Command{
		Use:           "sessiontoken",
		Short:         "Generate and verify signed session tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write log records to this file")

	root.AddCommand(secretCommand(), generateCommand(), checkCommand())

	err := root.Execute()
	sessiontoken.Shutdown(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	cfg := log.NewDefaultConfig()
	cfg.Level = flagLogLevel
	if flagLogFile != "" {
		cfg = log.EnableFileOutput(cfg, flagLogFile)
		sessiontoken.RegisterDestructor(func() error {
			log.CloseLogFiles()
			return nil
		})
	}
	return log.Configure(cfg)
}

func secretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a new secret key suitable for signing tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := token.NewManager().GenerateSecretKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secretKey, err := resolveSecretKey()
			if err != nil {
				return err
			}

			extra, err := parseExtra(flagExtra)
			if err != nil {
				return err
			}

			tok, err := token.NewManager().GenerateSessionID(secretKey, flagSigned, extra)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	addSecretFlags(cmd)
	cmd.Flags().StringArrayVar(&flagExtra, "extra", nil, "extra payload entry, key=value (repeatable)")
	return cmd
}

func checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <token>",
		Short: "Verify a session token's signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secretKey, err := resolveSecretKey()
			if err != nil {
				return err
			}

			if !token.NewManager().CheckSignature(args[0], secretKey, flagSigned) {
				return errInvalidSignature
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token signature is valid")
			return nil
		},
	}
	addSecretFlags(cmd)
	return cmd
}

func addSecretFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagSigned, "signed", false, "sign / require a signed token")
	cmd.Flags().StringVar(&flagSecret, "secret", "", "secret key")
	cmd.Flags().StringVar(&flagSecretFile, "secret-file", "", "read the secret key from a file")
	cmd.Flags().BoolVar(&flagAskSecret, "ask-secret", false, "prompt for the secret key without echo")
}

// resolveSecretKey picks the secret source: explicit flag, file, interactive
// prompt, or the configuration environment variable
func resolveSecretKey() (string, error) {
	if flagAskSecret {
		fmt.Fprint(os.Stderr, "secret key: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	keyCfg := secure.DefaultKeyConfig()
	if flagSecret != "" {
		keyCfg = secure.KeyConfig{Key: flagSecret}
	} else if flagSecretFile != "" {
		keyCfg = secure.KeyConfig{KeyFile: flagSecretFile}
	}
	return keyCfg.Fetch()
}

// parseExtra converts repeated key=value flags into a payload map; values
// that parse as JSON keep their JSON type, everything else stays a string
func parseExtra(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	extra := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid extra payload entry %q, expected key=value", pair)
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			extra[key] = parsed
		} else {
			extra[key] = value
		}
	}
	return extra, nil
}
