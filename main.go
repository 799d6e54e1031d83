package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, _ io.Reader, stdout, stderr io.Writer) int {
	var opt Options

	rootCmd := &cobra.Command{
		Use:   "githerd [flags] <command> [command arguments...]",
		Short: "Run one git operation across every repository in the tree",
		Long: `Githerd applies a single git operation uniformly across the tree of
repositories listed in the manifest ("packages" file) of the current
directory, in manifest order, resumably.

Commands:
  get          clone missing repositories, then reconcile submodules
  status, commit, push, pull, fetch, log, checkout, grep, diff, clean,
  reset, branch, config, repack, format-patch, gc, tag
               run the matching git command in each repository
  new          list local commits not yet on the upstream branch
  new-workdir  create linked working directories via git-new-workdir
  send         run git send-email in each repository
  remote       add | rm | set-branches | set-url, with resolved addresses
  compare      report same/different against another repository tree
  check_submodules
               verify submodule commits are published

Arguments after the command are passed to git unchanged; flags must come
before the command.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			h, err := newHerd(opt, wd, stdout, stderr)
			if err != nil {
				return err
			}
			return h.runOp(args[0], args[1:])
		},
	}

	f := rootCmd.Flags()
	// Everything after the command name belongs to git, not to us.
	f.SetInterspersed(false)
	f.BoolVarP(&opt.Quiet, "quiet", "q", false, "suppress progress output")
	f.BoolVarP(&opt.Silent, "silent", "s", false, "suppress all output, including git's")
	f.BoolVar(&opt.Resume, "resume", false, "continue an interrupted run of the same command")
	f.BoolVarP(&opt.KeepGoing, "keep-going", "k", false, "log git failures and continue instead of aborting")
	f.StringVar(&opt.RemoteRoot, "remote-root", "", "remote repository tree root (default: inferred from the primary checkout)")
	f.BoolVar(&opt.CheckedOut, "checked-out", false, "treat the remote root as a checked-out tree")
	f.BoolVar(&opt.Bare, "bare", false, "local repositories use the bare layout")
	f.StringArrayVar(&opt.Include, "include", nil, "include repositories carrying this tag (repeatable)")
	f.StringArrayVar(&opt.Exclude, "exclude", nil, "exclude repositories carrying this tag (repeatable)")

	rootCmd.SetArgs(args[1:])
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("error:"), err)
		return 1
	}
	return 0
}
