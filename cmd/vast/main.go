// Command vast is the minimal command-line front end spec section 6
// describes: enough surface to drive conformance tests against a single
// node, not a query language front end (that is explicitly out of scope).
// Subcommand dispatch and flag handling follow cmd/bio-fusion's style --
// stdlib flag.FlagSet per subcommand, grail.Init/vcontext.Background around
// main, github.com/grailbio/base/log for fatal errors -- rather than
// cmd/bio-pamtool's v.io/x/lib/cmdline tree, since this tool has three flat
// subcommands and no need for cmdline's nested-runner machinery.
package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/vastio/vast-core/internal/config"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vast <command> [flags]

commands:
  import   read newline-delimited JSON records from stdin and admit them
  export   scan stored records matching an expression
  status   print importer and segment store status`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()
	cfg := config.FromEnv()

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(ctx, cfg, os.Args[2:])
	case "export":
		err = runExport(ctx, cfg, os.Args[2:])
	case "status":
		err = runStatus(ctx, cfg, os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vast: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Printf("vast %s: %v", os.Args[1], err)
		os.Exit(1)
	}
}
