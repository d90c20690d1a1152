package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andresmejia3/warpframe/internal/node"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the registered nodes and their inputs",
	Run: func(cmd *cobra.Command, args []string) {
		printRegistry(os.Stdout, node.Registry())
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}

func printRegistry(out io.Writer, nodes []node.Descriptor) {
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No nodes registered.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tCATEGORY\tOUTPUTS")
	fmt.Fprintln(w, "----\t------------\t--------\t-------")
	for _, d := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.DisplayName, d.Category, strings.Join(d.Outputs, ", "))
	}
	w.Flush()

	for _, d := range nodes {
		fmt.Fprintf(out, "\n%s inputs:\n", d.Name)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "  INPUT\tTYPE\tDEFAULT\tCONSTRAINT")
		for _, in := range d.Inputs {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", in.Name, in.Type, fmtDefault(in.Default), fmtConstraint(in))
		}
		w.Flush()
	}
}

func fmtDefault(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}

func fmtConstraint(in node.Input) string {
	switch {
	case len(in.Choices) > 0:
		return strings.Join(in.Choices, " | ")
	case in.Type == node.TypeFloat:
		return fmt.Sprintf("[%g, %g] step %g", in.Min, in.Max, in.Step)
	default:
		return "-"
	}
}
