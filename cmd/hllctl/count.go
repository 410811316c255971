package main

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/LiveRamp/hllarray/pkg/ingest"
	"github.com/LiveRamp/hllarray/internal"
	"github.com/dustinkirkland/golang-petname"
	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdCount struct {
	Array   internal.ArrayConfig `group:"Array"`
	Name    string               `long:"name" description:"Name under which the array is stored. If empty, a name is generated"`
	Append  bool                 `long:"append" description:"Add to the array already stored under --name, rather than creating a new one"`
	Input   string               `long:"input" short:"i" default:"-" description:"Path of values to count, or - for stdin"`
	Workers int                  `long:"workers" default:"0" description:"Number of ingest workers. 0 defaults to GOMAXPROCS"`
	Stripes int                  `long:"stripes" default:"64" description:"Number of lock stripes guarding counters"`
	Quiet   bool                 `long:"quiet" short:"q" description:"Don't write estimates to stdout"`

	cfg *BaseCfg
}

func (cmd *cmdCount) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var ctx = context.Background()
	var st = openStore(cmd.cfg)
	defer st.Close()

	if cmd.Name == "" && cmd.Append {
		log.Fatal("--append requires --name")
	} else if cmd.Name == "" {
		cmd.Name = petname.Generate(2, "-")
	}

	var arr *hll.CounterArray
	var err error

	if cmd.Append {
		arr, err = st.Get(ctx, cmd.Name)
		mbp.Must(err, "failed to fetch array", "name", cmd.Name)
	} else {
		arr, err = cmd.Array.Build()
		mbp.Must(err, "failed to build array")
	}

	var in io.Reader = os.Stdin
	if cmd.Input != "-" {
		var f, err = os.Open(cmd.Input)
		mbp.Must(err, "failed to open input")
		defer f.Close()
		in = f
	}
	if cmd.Workers == 0 {
		cmd.Workers = runtime.GOMAXPROCS(0)
	}

	stats, err := ingest.Run(ctx, in, hll.NewSyncArray(arr, cmd.Stripes), cmd.Workers)
	mbp.Must(err, "failed to count input")

	mbp.Must(st.Put(ctx, cmd.Name, arr), "failed to store array", "name", cmd.Name)

	log.WithFields(log.Fields{
		"name":   cmd.Name,
		"lines":  stats.Lines,
		"values": stats.Values,
		"seed":   arr.Spec().Seed,
	}).Info("stored array")

	if cmd.Quiet {
		return nil
	}
	return writeEstimates(os.Stdout, arr, -1)
}
