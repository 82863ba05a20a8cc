package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/olsync/olsync/internal/olsdk"
	"github.com/olsync/olsync/internal/utils"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var username string
	var password string
	var storePath string
	var serverURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login and persist the session",
		Long:  "Authenticates against the Overleaf server and persists the session cookie. The credentials are not stored or used for anything else.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// One reader for every stdin prompt; a second reader would lose
			// whatever the first one buffered.
			stdin := bufio.NewReader(os.Stdin)

			if utils.FileExists(storePath) && !confirm(stdin, "A persisted session already exists. Overwrite it?") {
				return nil
			}

			if username == "" {
				fmt.Print("Username: ")
				line, err := readLine(stdin)
				if err != nil {
					return fmt.Errorf("read username: %w", err)
				}
				username = line
			}

			if password == "" {
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(raw)
			}

			session, err := olsdk.Login(cmd.Context(), serverURL, username, password)
			if err != nil {
				return err
			}

			if err := olsdk.SaveSession(storePath, session); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}

			fmt.Printf("%s Session persisted as %q. You may now sync your project.\n", green("Login successful."), storePath)
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&username, "username", "u", "", "Overleaf username (prompted if not given)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Overleaf password (prompted if not given)")
	cmd.Flags().StringVar(&storePath, "path", defaultStorePath, "path to persist the session store")
	cmd.Flags().StringVar(&serverURL, "server", olsdk.DefaultServerURL, "base URL of the Overleaf server")

	return cmd
}

// readLine returns one trimmed input line. Interior spaces survive; only the
// surrounding whitespace and the newline are dropped.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func confirm(in *bufio.Reader, question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := readLine(in)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
