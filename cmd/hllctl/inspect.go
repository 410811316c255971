package main

import (
	"context"
	"os"

	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdInspect struct {
	Name   string `long:"name" required:"true" description:"Name of the stored array"`
	Format string `long:"format" short:"o" choice:"yaml" choice:"json" default:"yaml" description:"Output format"`

	cfg *BaseCfg
}

func (cmd *cmdInspect) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var st = openStore(cmd.cfg)
	defer st.Close()

	var arr, err = st.Get(context.Background(), cmd.Name)
	mbp.Must(err, "failed to fetch array", "name", cmd.Name)

	return encode(os.Stdout, cmd.Format, describe(arr.Spec()))
}
