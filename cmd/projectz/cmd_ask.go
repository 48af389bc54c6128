package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Omkar399/project-z/internal/router"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question through the query router",
	Long: `Classifies the question, picks a strategy (clipboard-grounded,
calendar read, calendar create, or direct), and prints the answer.
Clipboard-grounded answers draw on snippets captured with 'memory add'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		r := a.buildRouter(stubCalendar{}, stubDirectory{})
		snippets := a.retrieveSnippets(ctx, question)

		answer := r.Answer(ctx, router.Question{Text: question}, snippets)
		fmt.Println(answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
