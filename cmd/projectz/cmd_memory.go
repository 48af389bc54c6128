package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	memorySource string
	memoryTopK   int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Capture and search snippets",
	Long: `Captured snippets are embedded and stored locally; they become the
grounding corpus for clipboard-style questions asked with 'projectz ask'.`,
}

var memoryAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Capture a snippet",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		content := strings.Join(args, " ")
		sn, err := a.memory.Capture(context.Background(), a.llm, content, memorySource)
		if err != nil {
			return err
		}
		if sn.Embedding == nil {
			fmt.Printf("Captured %s (embedding unavailable; stored without vector)\n", sn.ID)
		} else {
			fmt.Printf("Captured %s\n", sn.ID)
		}
		return nil
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search captured snippets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		vec, err := a.llm.Embed(context.Background(), query)
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}

		results, err := a.memory.Search(vec, memoryTopK)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matching snippets.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%.2f  %s\n", r.Similarity, r.Snippet.Content)
		}
		return nil
	},
}

var memoryRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Delete a captured snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.memory.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently captured snippets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		snippets, err := a.memory.Recent(memoryTopK)
		if err != nil {
			return err
		}
		if len(snippets) == 0 {
			fmt.Println("No snippets captured yet.")
			return nil
		}
		for _, sn := range snippets {
			fmt.Printf("%s  %s  %s\n", sn.CreatedAt.Format("2006-01-02 15:04"), sn.ID, sn.Content)
		}
		return nil
	},
}

func init() {
	memoryAddCmd.Flags().StringVar(&memorySource, "source", "", "app or context the text came from")
	memoryCmd.PersistentFlags().IntVar(&memoryTopK, "limit", 5, "number of snippets to return")
	memoryCmd.AddCommand(memoryAddCmd, memorySearchCmd, memoryListCmd, memoryRemoveCmd)
	rootCmd.AddCommand(memoryCmd)
}
