package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	internalApp "github.com/landonvance1/BookSharingApp/internal/app"
	"github.com/landonvance1/BookSharingApp/internal/auth"
	"github.com/landonvance1/BookSharingApp/pkg/fileurl"

	"github.com/spf13/cobra"
)

func init() {
	var configFile string

	var tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Manage the stored access token",
	}

	var setCmd = &cobra.Command{
		Use:   "set <token>",
		Short: "Store the access token used for API and realtime auth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := tokenFilePath(configFile)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0754); err != nil {
				return err
			}
			token := strings.TrimSpace(args[0])
			if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
				return err
			}
			fmt.Printf("token stored in %s\n", path)
			if exp, ok := auth.TokenExpiry(token); ok {
				fmt.Printf("expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the stored token's expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := tokenFilePath(configFile)
			if err != nil {
				return err
			}
			token, err := auth.NewFileStore(path).Token()
			if err != nil {
				return err
			}
			if token == "" {
				fmt.Println("no token stored")
				return nil
			}
			if exp, ok := auth.TokenExpiry(token); ok {
				fmt.Printf("token present, expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			} else {
				fmt.Println("token present (no expiry claim)")
			}
			return nil
		},
	}

	var clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := tokenFilePath(configFile)
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Println("token cleared")
			return nil
		},
	}

	tokenCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	tokenCmd.AddCommand(setCmd, showCmd, clearCmd)
	rootCmd.AddCommand(tokenCmd)
}

// tokenFilePath resolves the token file from config, falling back to the
// default location when no config file exists yet.
func tokenFilePath(configFile string) (string, error) {
	if configFile == "" {
		for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
			if fileurl.IsExist(candidate) {
				configFile = candidate
				break
			}
		}
	}
	if configFile == "" {
		return "storage/token", nil
	}
	cfg, _, err := internalApp.LoadConfig(configFile)
	if err != nil {
		return "", err
	}
	return cfg.Security.TokenFile, nil
}
