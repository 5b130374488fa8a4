package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	niri "github.com/niri-tools/niri-go"
)

var (
	socketPath string
	jsonOutput bool

	log = logrus.New()
)

type logger struct{}

func (logger) Info(msg string) { log.Debug(msg) }
func (logger) Warn(msg string) { log.Warn(msg) }

func newClient() (niri.Client, error) {
	if socketPath != "" {
		return niri.NewWithSocket(socketPath, logger{})
	}

	return niri.New(logger{})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&socketPath, "socket", "", "path to the compositor socket (defaults to $NIRI_SOCKET)")
	flags.BoolVar(&jsonOutput, "json", false, "print raw JSON instead of formatted output")
}

func optional(s *string, fallback string) string {
	if s == nil {
		return fallback
	}

	return *s
}

func main() {
	root := &cobra.Command{
		Use:           "nirimsg",
		Short:         "Communicate with the running niri instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		versionCmd(),
		workspacesCmd(),
		windowsCmd(),
		keyboardLayoutsCmd(),
		focusedWindowCmd(),
		actionCmd(),
		eventStreamCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compositor version",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var version string
			if err := c.Request(niri.RequestVersion, niri.ToVersion(&version)); err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(version)
			}

			fmt.Println(version)

			return nil
		},
	}
}

func workspacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var workspaces []niri.Workspace
			if err := c.Request(niri.RequestWorkspaces, niri.ToWorkspaces(&workspaces)); err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(workspaces)
			}

			for _, ws := range workspaces {
				marker := " "
				if ws.IsFocused {
					marker = "*"
				}

				fmt.Printf("%s %d (%s) on %s\n", marker, ws.Index,
					optional(ws.Name, fmt.Sprintf("id %d", ws.ID)),
					optional(ws.Output, "no output"))
			}

			return nil
		},
	}
}

func windowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List toplevel windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var windows []niri.Window
			if err := c.Request(niri.RequestWindows, niri.ToWindows(&windows)); err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(windows)
			}

			for _, w := range windows {
				marker := " "
				if w.IsFocused {
					marker = "*"
				}

				fmt.Printf("%s %d: %s [%s]\n", marker, w.ID,
					optional(w.Title, "(untitled)"), optional(w.AppID, "unknown app"))
			}

			return nil
		},
	}
}

func keyboardLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keyboard-layouts",
		Short: "List configured keyboard layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var layouts niri.KeyboardLayouts
			if err := c.Request(niri.RequestKeyboardLayouts, niri.ToKeyboardLayouts(&layouts)); err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(layouts)
			}

			for i, name := range layouts.Names {
				marker := " "
				if uint8(i) == layouts.CurrentIdx {
					marker = "*"
				}

				fmt.Printf("%s %d %s\n", marker, i, name)
			}

			return nil
		},
	}
}

func focusedWindowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focused-window",
		Short: "Print the focused window",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var window *niri.Window
			if err := c.Request(niri.RequestFocusedWindow, niri.ToFocusedWindow(&window)); err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(window)
			}

			if window == nil {
				fmt.Println("no window is focused")
				return nil
			}

			fmt.Printf("%d: %s [%s]\n", window.ID,
				optional(window.Title, "(untitled)"), optional(window.AppID, "unknown app"))

			return nil
		},
	}
}

func actionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <json>",
		Short: "Perform a compositor action, given as a JSON value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var action interface{}
			if err := json.Unmarshal([]byte(args[0]), &action); err != nil {
				return fmt.Errorf("invalid action payload: %v", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			return c.Request(niri.RequestAction(action), nil)
		},
	}
}

func eventStreamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event-stream",
		Short: "Mirror compositor state from the event stream and print changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			eventCh, errCh, err := c.EventStream()
			if err != nil {
				return err
			}

			state := niri.NewEventStreamState()

			for {
				select {
				case err := <-errCh:
					return err
				case ev, ok := <-eventCh:
					if !ok {
						return nil
					}

					if _, err := state.Apply(ev); err != nil {
						return err
					}

					if jsonOutput {
						if err := printJSON(ev); err != nil {
							return err
						}
						continue
					}

					fmt.Printf("%s: workspaces=%d windows=%d overview=%v\n", ev.Type,
						len(state.Workspaces().Workspaces()),
						len(state.Windows().Windows()),
						state.Overview().IsOpen())
				}
			}
		},
	}
}
