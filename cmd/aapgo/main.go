// Command aapgo lists the plugins it can host and renders audio files
// through them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/justyntemme/aapgo/internal/config"
	"github.com/justyntemme/aapgo/pkg/host"

	_ "github.com/justyntemme/aapgo/examples/ducker"
	_ "github.com/justyntemme/aapgo/examples/gain"
	_ "github.com/justyntemme/aapgo/examples/simplesynth"
	_ "github.com/justyntemme/aapgo/examples/transpose"
)

const (
	successExitCode = 0
	errorExitCode   = 1
)

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

type app struct {
	args     []string
	out      io.Writer
	commands []command
}

func newApp(args []string, out io.Writer) *app {
	return &app{
		args:     args,
		out:      out,
		commands: []command{&listCommand{out: out}, &renderCommand{out: out}},
	}
}

func (a *app) run() int {
	cmdName, args := parseArgs(a.args)
	for _, cmd := range a.commands {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(a.out)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(a.out, "%s failed: %v\n", cmdName, err)
			return errorExitCode
		}
		return successExitCode
	}
	a.printUsage()
	return errorExitCode
}

func main() {
	os.Exit(newApp(os.Args, os.Stdout).run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func (a *app) printUsage() {
	fmt.Fprintln(a.out, "aapgo hosts audio plugins from the command line")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Usage: aapgo <command> [flags]")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Commands:")
	for _, cmd := range a.commands {
		fmt.Fprintf(a.out, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// stringList is a flag holding comma separated values. Repeating the flag
// appends.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// common holds the flags every command shares.
type common struct {
	configPath string
	paths      stringList
	cfg        *config.Config
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "aapgo.yaml", "configuration file")
	fs.Var(&c.paths, "path", "comma separated directories with plugin metadata")
}

// load reads the configuration and applies its log level.
func (c *common) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	cfg.Host.MetadataPaths = append(cfg.Host.MetadataPaths, c.paths...)
	c.cfg = cfg
	return nil
}

func (c *common) options() host.Options {
	return host.Options{
		MetadataPaths:    c.cfg.Host.MetadataPaths,
		SharedMemory:     c.cfg.Host.SharedMemory,
		PerfThreshold:    time.Duration(c.cfg.Perf.Threshold),
		PerfWarnings:     c.cfg.Perf.Warnings,
		ProcessTimeout:   time.Duration(c.cfg.Host.ProcessTimeout),
		TimeDivision:     c.cfg.Midi.HostTimeDivision,
		SysexScratchSize: c.cfg.Midi.SysexScratchSize,
	}
}

// openFormat starts a format and scans for plugins. Unreadable metadata is
// logged, not fatal.
func (c *common) openFormat() *host.Format {
	f := host.NewFormat(c.options())
	if err := f.Scan(); err != nil {
		log.Warn("scan: %v", err)
	}
	return f
}
