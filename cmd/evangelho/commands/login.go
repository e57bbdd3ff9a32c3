package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/evangelho/provider/redisprovider"
)

func loginCmd() *cobra.Command {
	var (
		email, pw  string
		showToken  bool
		stayLogged bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and show the session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.newSession()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			loginErr := s.signIn(ctx, email, pw)
			printState(cmd, s.controller.State())
			if loginErr != nil {
				return loginErr
			}

			uid := s.controller.State().UserID
			profile, err := s.provider.GetProfile(ctx, uid)
			switch {
			case errors.Is(err, redisprovider.ErrProfileNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "no profile stored")
			case err != nil:
				return err
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "welcome, %s\n", profile.Name)
			}
			if showToken {
				fmt.Fprintln(cmd.OutOrStdout(), s.provider.IDToken())
			}

			if !stayLogged {
				s.controller.Logout(opContext(ctx))
				s.controller.Wait()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pw, "password", "", "password")
	cmd.Flags().BoolVar(&showToken, "token", false, "print the ID token")
	cmd.Flags().BoolVar(&stayLogged, "keep", false, "leave the session open in redis")
	return cmd
}
