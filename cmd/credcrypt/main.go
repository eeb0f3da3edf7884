// Command credcrypt encrypts provider credentials with the broker's AES key
// so they can be stored in configuration records.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"payment-broker/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const keyEnv = "PB_CRYPTO_KEY"

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var key string

	root := &cobra.Command{
		Use:           "credcrypt",
		Short:         "Encrypt and decrypt payment provider credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&key, "key", "k", "", "hex-encoded 32-byte key (default $"+keyEnv+")")
	root.SetIn(in)
	root.SetOut(out)

	codec := func() (*service.AESCodec, error) {
		k := key
		if k == "" {
			k = os.Getenv(keyEnv)
		}
		if k == "" {
			return nil, errors.New("no key: pass --key or set " + keyEnv)
		}
		return service.NewAESCodec(k)
	}

	root.AddCommand(
		encryptCmd(codec),
		decryptCmd(codec),
		treeCmd(codec),
	)
	return root
}

type codecFunc func() (*service.AESCodec, error)

func encryptCmd(codec codecFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt one value (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec()
			if err != nil {
				return err
			}
			value, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			ct, err := c.Encrypt(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ct)
			return nil
		},
	}
}

func decryptCmd(codec codecFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [ciphertext]",
		Short: "Decrypt one value (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec()
			if err != nil {
				return err
			}
			value, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			pt, err := c.Decrypt(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pt)
			return nil
		},
	}
}

func treeCmd(codec codecFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Encrypt every string leaf of a JSON document read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := codec()
			if err != nil {
				return err
			}
			var doc any
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&doc); err != nil {
				return fmt.Errorf("reading JSON: %w", err)
			}
			enc, err := encryptLeaves(c, doc)
			if err != nil {
				return err
			}
			e := json.NewEncoder(cmd.OutOrStdout())
			e.SetIndent("", "  ")
			return e.Encode(enc)
		},
	}
}

func encryptLeaves(c *service.AESCodec, v any) (any, error) {
	switch t := v.(type) {
	case string:
		return c.Encrypt(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			enc, err := encryptLeaves(c, item)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			enc, err := encryptLeaves(c, item)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	default:
		return v, nil
	}
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no value given")
	}
	return line, nil
}
