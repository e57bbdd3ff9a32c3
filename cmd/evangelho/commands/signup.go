package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/evangelho"
)

func signupCmd() *cobra.Command {
	var (
		name, email, pw, confirm, birth string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store its profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			born, err := time.Parse(time.DateOnly, birth)
			if err != nil {
				return fmt.Errorf("--birth must be YYYY-MM-DD: %w", err)
			}
			if confirm == "" {
				confirm = pw
			}

			s, err := appCtx.newSession()
			if err != nil {
				return err
			}
			defer s.close()

			res := s.controller.SubmitAccount(opContext(cmd.Context()), evangelho.AccountDraft{
				Name:            name,
				Email:           email,
				Password:        pw,
				ConfirmPassword: confirm,
				BirthDate:       born,
			})
			if !res.OK() {
				return res.Err()
			}
			s.controller.Wait()

			st := s.controller.State()
			printState(cmd, st)
			if st.ErrorMessage != "" {
				return errors.New(st.ErrorMessage)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account created")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pw, "password", "", "password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (default: same as --password)")
	cmd.Flags().StringVar(&birth, "birth", "", "birth date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("birth")
	return cmd
}
