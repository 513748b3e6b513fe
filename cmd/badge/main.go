// Command badge is the operator CLI for working with badge tokens without
// going through the HTTP API: issue a token, render it as a QR PNG, check a
// scanned token, and hash an operator password for configuration.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"qatysu.org/internal/auth"
	"qatysu.org/internal/badge"
)

var (
	secretFlag string
	maxAgeFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "badge",
	Short: "Issue and inspect qatysu badge tokens",
}

var issueCmd = &cobra.Command{
	Use:   "issue <employee-id>",
	Short: "Issue a signed badge token and print it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := newCodec()
		if err != nil {
			return err
		}
		token, err := codec.Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var qrCmd = &cobra.Command{
	Use:   "qr <employee-id> <output.png>",
	Short: "Issue a badge token and write it as a QR PNG",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := newCodec()
		if err != nil {
			return err
		}
		token, err := codec.Issue(args[0])
		if err != nil {
			return err
		}
		if err := qrcode.WriteFile(token, qrcode.Medium, 256, args[1]); err != nil {
			return err
		}
		fmt.Printf("wrote %s (valid %s)\n", args[1], codec.MaxAge())
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <token>",
	Short: "Validate a badge token and print the embedded employee id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := newCodec()
		if err != nil {
			return err
		}
		id, err := codec.Validate(args[0])
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Hash an operator password for QATYSU_ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func newCodec() (*badge.Codec, error) {
	secret := secretFlag
	if secret == "" {
		secret = os.Getenv("QATYSU_BADGE_SECRET")
	}
	if secret == "" {
		return nil, errors.New("missing badge secret: provide --secret or QATYSU_BADGE_SECRET")
	}
	opts := []badge.Option{}
	if maxAgeFlag > 0 {
		opts = append(opts, badge.WithMaxAge(maxAgeFlag))
	}
	return badge.New([]byte(secret), opts...)
}

func init() {
	cobra.OnInitialize(func() {
		// .env file is optional, don't fail if not found
		_ = godotenv.Load()
	})
	rootCmd.PersistentFlags().StringVar(&secretFlag, "secret", "", "Badge signing secret (defaults to QATYSU_BADGE_SECRET)")
	rootCmd.PersistentFlags().DurationVar(&maxAgeFlag, "max-age", 0, "Token validity window (defaults to 60s)")
	rootCmd.AddCommand(issueCmd, qrCmd, validateCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
