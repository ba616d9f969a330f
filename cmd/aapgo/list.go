package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/justyntemme/aapgo/pkg/framework/debug"
)

var log = debug.Default().WithField("component", "cli")

type listCommand struct {
	common
	verbose bool
	out     io.Writer
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the plugins that can be hosted"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	cmd.register(fs)
	fs.BoolVar(&cmd.verbose, "v", false, "also list ports and parameters")
}

func (cmd *listCommand) Run() error {
	if err := cmd.load(); err != nil {
		return err
	}
	f := cmd.openFormat()
	defer f.Close()

	tw := tabwriter.NewWriter(cmd.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tIN\tOUT\tMIDI\tFILE")
	for _, d := range f.Descriptions() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			d.Identifier, d.Name, d.Category, d.NumInputChannels, d.NumOutputChannels, midiColumn(d.AcceptsMidi, d.ProducesMidi), d.File)
		if !cmd.verbose {
			continue
		}
		for _, p := range d.Info.Ports {
			fmt.Fprintf(tw, "\tport %d\t%s %s\t%s\n", p.Index, p.Direction, p.Content, p.Name)
		}
		for _, p := range d.Info.Parameters {
			fmt.Fprintf(tw, "\tparam %d\t%s%s\tdefault %.3f\n", p.ID, p.Path+"/", p.Name, p.Default)
		}
	}
	return tw.Flush()
}

func midiColumn(in, out bool) string {
	switch {
	case in && out:
		return "in/out"
	case in:
		return "in"
	case out:
		return "out"
	}
	return "-"
}
