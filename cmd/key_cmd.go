package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/secrets"
)

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key in the OS keychain",
	}
	cmd.AddCommand(keySetCmd())
	cmd.AddCommand(keyClearCmd())
	return cmd
}

func keySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key in the OS keychain",
		Long: `Set stores the API key in the OS keychain so it never sits in the
config file. With no argument the key is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(os.Stderr, "API key: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					fmt.Fprintf(os.Stderr, "Error reading key: %v\n", err)
					os.Exit(1)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				fmt.Fprintln(os.Stderr, "Empty key, nothing stored")
				os.Exit(1)
			}
			if err := secrets.SetAPIKey(key); err != nil {
				fmt.Fprintf(os.Stderr, "Error storing key: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API key stored in keychain")
		},
	}
}

func keyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the API key from the OS keychain",
		Run: func(cmd *cobra.Command, args []string) {
			if err := secrets.ClearAPIKey(); err != nil {
				fmt.Fprintf(os.Stderr, "Error clearing key: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API key removed from keychain")
		},
	}
}
