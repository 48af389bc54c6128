package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var guardNudge string

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Manage the guarded contact list",
	Long: `Guarded contacts trigger a nudge when they show up in a monitored
messaging app while 'projectz watch' is running.`,
}

var guardAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a guarded contact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name := strings.Join(args, " ")
		contact, err := a.settings.AddContact(name, guardNudge)
		if err != nil {
			return err
		}
		fmt.Printf("Guarding %q (id %s)\n", contact.Name, contact.ID)
		return nil
	},
}

var guardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List guarded contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		contacts, err := a.settings.ListContacts()
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			fmt.Println("No guarded contacts.")
			return nil
		}
		for _, c := range contacts {
			state := "enabled"
			if !c.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-20s %s", c.ID, c.Name, state)
			if c.CustomNudge != "" {
				fmt.Printf("  nudge: %q", c.CustomNudge)
			}
			fmt.Println()
		}
		return nil
	},
}

var guardRemoveCmd = &cobra.Command{
	Use:   "remove [id|name]",
	Short: "Remove a guarded contact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		target := strings.Join(args, " ")
		if err := a.settings.RemoveContact(target); err != nil {
			return err
		}
		fmt.Printf("Removed %q\n", target)
		return nil
	},
}

var guardEnableCmd = &cobra.Command{
	Use:   "enable [id|name]",
	Short: "Enable a guarded contact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setGuardEnabled(strings.Join(args, " "), true)
	},
}

var guardDisableCmd = &cobra.Command{
	Use:   "disable [id|name]",
	Short: "Disable a guarded contact without removing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setGuardEnabled(strings.Join(args, " "), false)
	},
}

func setGuardEnabled(target string, enabled bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.settings.SetContactEnabled(target, enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Printf("Enabled %q\n", target)
	} else {
		fmt.Printf("Disabled %q\n", target)
	}
	return nil
}

func init() {
	guardAddCmd.Flags().StringVar(&guardNudge, "nudge", "", "custom nudge text shown for this contact")
	guardCmd.AddCommand(guardAddCmd, guardListCmd, guardRemoveCmd, guardEnableCmd, guardDisableCmd)
	rootCmd.AddCommand(guardCmd)
}
