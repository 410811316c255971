package main

import (
	"context"
	"os"

	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdEstimate struct {
	Name    string `long:"name" required:"true" description:"Name of the stored array"`
	Counter int    `long:"counter" default:"-1" description:"Counter to estimate. If negative, all counters are estimated"`

	cfg *BaseCfg
}

func (cmd *cmdEstimate) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var st = openStore(cmd.cfg)
	defer st.Close()

	var arr, err = st.Get(context.Background(), cmd.Name)
	mbp.Must(err, "failed to fetch array", "name", cmd.Name)

	if cmd.Counter >= 0 {
		mbp.Must(validCounter(arr.Spec(), cmd.Counter), "invalid --counter")
	}
	return writeEstimates(os.Stdout, arr, cmd.Counter)
}
