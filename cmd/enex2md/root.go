package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for enex2md.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enex2md",
		Short: "Convert Evernote ENEX exports to Markdown",
		Long: `enex2md converts Evernote export archives (.enex) into plain Markdown files.

Every note becomes one Markdown file named after its title. Attachments are
decoded, identified by content and written once into a shared media
directory, no matter how many notes embed them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewConvertCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
