package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Set, clear, or inspect the focus goal",
	Long: `The focus goal drives drift monitoring: while 'projectz watch' is
running, on-screen context is scored against the goal and you get a nudge
when your activity drifts away from it.`,
}

var goalSetCmd = &cobra.Command{
	Use:   "set [text]",
	Short: "Set the focus goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		text := strings.Join(args, " ")
		if err := a.settings.SaveGoal(text); err != nil {
			return err
		}
		fmt.Printf("Goal set: %q\n", text)
		return nil
	},
}

var goalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the focus goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.settings.ClearGoal(); err != nil {
			return err
		}
		fmt.Println("Goal cleared.")
		return nil
	},
}

var goalStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current focus goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		text, setAt, err := a.settings.LoadGoal()
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Println("No goal set.")
			return nil
		}
		fmt.Printf("Goal: %q (set %s)\n", text, setAt.Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	goalCmd.AddCommand(goalSetCmd, goalClearCmd, goalStatusCmd)
	rootCmd.AddCommand(goalCmd)
}
