package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *cli) loginCmd() *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username or e-mail",
		Example: `  fanbase login --user alice
  echo "$PASSWORD" | fanbase login --user alice`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSetup: setupNoRestore},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if login == "" {
				if login, err = c.prompt("Username or e-mail: "); err != nil {
					return err
				}
			}
			password, err := c.promptPassword()
			if err != nil {
				return err
			}

			if err := c.app.SignIn(cmd.Context(), models.Credentials{Login: login, Password: password}); err != nil {
				return err
			}
			me := c.app.Profile.Current()
			fmt.Fprintf(c.out, "Signed in as %s\n", me.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "user", "u", "", "username or e-mail")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Sign out and forget the stored session",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSetup: setupNoRestore},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			me := a.Profile.Current()
			if me == nil {
				return errNotSignedIn
			}
			printUser(c.out, me)
			if exp, ok := a.Session.Expiry(); ok {
				fmt.Fprintf(c.out, "Session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSetup: setupNone},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fanbase %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
