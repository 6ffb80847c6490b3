// Command bhyverun supervises a single bhyve(8) virtual machine described
// by a declarative JSON document: it compiles the document into a concrete
// hypervisor invocation, verifies (and optionally repairs) host
// preconditions, launches bhyve, and handles guest-initiated reboots by
// re-deriving the invocation from an optional target overlay.
package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/project-machine/bhyverun/internal/supervisor"
)

func main() {
	log.SetOutput(os.Stderr)

	var opts supervisor.Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "bhyverun"
	parser.Usage = "[OPTIONS] -- [ARGS...]"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(supervisor.FailureExitCode)
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	os.Exit(supervisor.Run(opts))
}
