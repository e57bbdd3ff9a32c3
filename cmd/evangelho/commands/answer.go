package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/evangelho/reflection"
)

func answerCmd() *cobra.Command {
	var (
		email, pw, question string
	)
	cmd := &cobra.Command{
		Use:   "answer [text...]",
		Short: "Sign in and record an answer to a reflection question",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.newSession()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			if err := s.signIn(ctx, email, pw); err != nil {
				return err
			}
			defer func() {
				s.controller.Logout(opContext(ctx))
				s.controller.Wait()
			}()

			a, err := s.answers.Submit(ctx, s.controller.State().UserID, question, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved answer to %q at %s\n", a.QuestionID, a.SubmittedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pw, "password", "", "password")
	cmd.Flags().StringVar(&question, "question", reflection.DefaultQuestion.ID, "question id")
	return cmd
}

func historyCmd() *cobra.Command {
	var email, pw string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Sign in and list recorded answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.newSession()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			if err := s.signIn(ctx, email, pw); err != nil {
				return err
			}
			defer func() {
				s.controller.Logout(opContext(ctx))
				s.controller.Wait()
			}()

			prompts := make(map[string]string)
			for _, q := range s.answers.Questions() {
				prompts[q.ID] = q.Prompt
			}

			answers, err := s.answers.History(ctx, s.controller.State().UserID)
			if err != nil {
				return err
			}
			if len(answers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no answers yet")
				return nil
			}
			for _, a := range answers {
				prompt := prompts[a.QuestionID]
				if prompt == "" {
					prompt = a.QuestionID
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n  %s\n", a.SubmittedAt.Format(time.DateTime), prompt, a.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pw, "password", "", "password")
	return cmd
}
