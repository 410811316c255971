package main

import (
	"context"
	"io"
	"os"

	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdExport struct {
	Name    string `long:"name" required:"true" description:"Name of the stored array"`
	Counter int    `long:"counter" default:"0" description:"Counter to export"`
	Format  string `long:"format" choice:"redis" choice:"pipeline" default:"redis" description:"HyperLogLog encoding"`
	Output  string `long:"output" short:"O" default:"-" description:"Path to write, or - for stdout"`

	cfg *BaseCfg
}

func (cmd *cmdExport) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var st = openStore(cmd.cfg)
	defer st.Close()

	var arr, err = st.Get(context.Background(), cmd.Name)
	mbp.Must(err, "failed to fetch array", "name", cmd.Name)
	mbp.Must(validCounter(arr.Spec(), cmd.Counter), "invalid --counter")

	var b []byte
	if cmd.Format == "pipeline" {
		b, err = arr.AppendPipeline(nil, cmd.Counter)
	} else {
		b, err = arr.AppendRedis(nil, cmd.Counter)
	}
	mbp.Must(err, "failed to encode counter", "counter", cmd.Counter, "format", cmd.Format)

	var out io.Writer = os.Stdout
	if cmd.Output != "-" {
		var f, err = os.Create(cmd.Output)
		mbp.Must(err, "failed to create output")
		defer f.Close()
		out = f
	}
	_, err = out.Write(b)
	return err
}

