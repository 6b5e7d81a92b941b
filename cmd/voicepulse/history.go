package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/voicepulse/store"
)

type historyOptions struct {
	root   *rootOptions
	output string
	limit  int
	delete bool
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{root: root}
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List archived lectures or show one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return runHistory(cmd, opts, id)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", formatYAML, "output format: yaml or json")
	f.IntVar(&opts.limit, "limit", 20, "maximum lectures to list (0 for all)")
	f.BoolVar(&opts.delete, "delete", false, "delete the given lecture instead of showing it")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions, id string) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}
	if opts.delete && id == "" {
		return fmt.Errorf("--delete needs a session id")
	}
	a, err := newApp(opts.root)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := store.Open(ctx, a.storeConfig(), a.log)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	switch {
	case opts.delete:
		if err := s.DeleteLecture(ctx, id); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "deleted %s\n", id)
		return err
	case id != "":
		l, err := s.Lecture(ctx, id)
		if err != nil {
			return err
		}
		return encode(out, opts.output, l)
	default:
		lectures, err := s.Lectures(ctx, opts.limit)
		if err != nil {
			return err
		}
		return encode(out, opts.output, lectures)
	}
}
