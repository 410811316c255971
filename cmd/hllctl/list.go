package main

import (
	"context"
	"fmt"
	"os"

	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdList struct {
	Prefix string `long:"prefix" description:"List only names having this prefix"`

	cfg *BaseCfg
}

func (cmd *cmdList) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var st = openStore(cmd.cfg)
	defer st.Close()

	var names, err = st.List(context.Background(), cmd.Prefix)
	mbp.Must(err, "failed to list arrays")

	for _, name := range names {
		if _, err = fmt.Fprintln(os.Stdout, name); err != nil {
			return err
		}
	}
	return nil
}
