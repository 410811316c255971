package main

import (
	"context"

	"github.com/LiveRamp/hllarray/pkg/store"
	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdDelete struct {
	IgnoreMissing bool `long:"ignore-missing" description:"Don't fail on names which aren't stored"`
	Args          struct {
		Names []string `positional-arg-name:"name" required:"1"`
	} `positional-args:"true"`

	cfg *BaseCfg
}

func (cmd *cmdDelete) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var st = openStore(cmd.cfg)
	defer st.Close()

	for _, name := range cmd.Args.Names {
		var err = st.Delete(context.Background(), name)
		if err == store.ErrNotFound && cmd.IgnoreMissing {
			log.WithField("name", name).Warn("array not found")
			continue
		}
		mbp.Must(err, "failed to delete array", "name", name)
		log.WithField("name", name).Info("deleted array")
	}
	return nil
}
