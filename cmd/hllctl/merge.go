package main

import (
	"context"
	"fmt"
	"os"

	"github.com/LiveRamp/hllarray/pkg/hll"
	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdMerge struct {
	Into        string `long:"into" description:"Name under which the merged array is stored. If empty, the merge is not stored"`
	CounterZero bool   `long:"counter-zero" description:"Merge only counter zero of each array, writing its estimate"`
	Args        struct {
		Names []string `positional-arg-name:"name" required:"2"`
	} `positional-args:"true"`

	cfg *BaseCfg
}

func (cmd *cmdMerge) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var ctx = context.Background()
	var st = openStore(cmd.cfg)
	defer st.Close()

	var arrays []*hll.CounterArray
	for _, name := range cmd.Args.Names {
		var arr, err = st.Get(ctx, name)
		mbp.Must(err, "failed to fetch array", "name", name)
		arrays = append(arrays, arr)
	}

	if cmd.CounterZero {
		var est, err = hll.MergeCount(arrays...)
		mbp.Must(err, "failed to merge arrays")
		_, err = fmt.Fprintf(os.Stdout, "0\t%.0f\n", est)
		return err
	}

	var merged, err = hll.Merge(arrays...)
	mbp.Must(err, "failed to merge arrays")

	if cmd.Into != "" {
		mbp.Must(st.Put(ctx, cmd.Into, merged), "failed to store array", "name", cmd.Into)

		log.WithFields(log.Fields{
			"name":   cmd.Into,
			"inputs": len(arrays),
		}).Info("stored merged array")
	}
	return writeEstimates(os.Stdout, merged, -1)
}
