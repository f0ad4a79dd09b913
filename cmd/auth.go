package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/auth"
	"github.com/rnwolfe/triage/internal/config"
	"github.com/rnwolfe/triage/internal/ui"
)

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account and log in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and remember the session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who is logged in",
	RunE:  runWhoami,
}

// askCredentials collects a username (from args or a prompt) and a password.
func askCredentials(args []string, confirm bool) (username, password string, err error) {
	if len(args) > 0 {
		username = args[0]
	} else {
		username, err = promptLine("Username")
		if err != nil {
			return "", "", err
		}
	}

	password, err = promptPassword("Password")
	if err != nil {
		return "", "", err
	}

	if confirm {
		again, err := promptPassword("Confirm password")
		if err != nil {
			return "", "", err
		}
		if password != again {
			return "", "", fmt.Errorf("passwords do not match")
		}
	}
	return username, password, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	username, password, err := askCredentials(args, true)
	if err != nil {
		return err
	}

	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	provider := auth.NewLocalProvider(db.Conn())
	if _, err := provider.Register(cmd.Context(), username, password); err != nil {
		return err
	}

	// Log straight in; registering and then typing the password again
	// would be pointless ceremony.
	sess, err := provider.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}
	if err := auth.SaveSessionToken(config.GetPaths().SessionFile, sess.Token); err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Welcome, %s! You are registered and logged in.", sess.Identity.Username))
	ui.Tip("`triage add \"first task\" -d tomorrow` to get going.")
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, password, err := askCredentials(args, false)
	if err != nil {
		return err
	}

	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := auth.NewLocalProvider(db.Conn()).Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}
	if err := auth.SaveSessionToken(config.GetPaths().SessionFile, sess.Token); err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Logged in as %s (session valid until %s)",
		sess.Identity.Username, sess.ExpiresAt.Local().Format("Jan 2")))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	sessionFile := config.GetPaths().SessionFile
	token, err := auth.LoadSessionToken(sessionFile)
	if err != nil {
		ui.Inf("Not logged in.")
		return nil
	}

	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	// Revoke server-side first; losing the local file but keeping a live
	// session would be the wrong failure order.
	if err := auth.NewLocalProvider(db.Conn()).Logout(cmd.Context(), token); err != nil {
		return err
	}
	if err := auth.ClearSessionToken(sessionFile); err != nil {
		return err
	}

	ui.Ok("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	fmt.Println()
	ui.Kv(ui.IconUser+" User", identity.Username)
	ui.Kv(ui.IconKey+" ID", identity.UserID)
	fmt.Println()
	return nil
}
