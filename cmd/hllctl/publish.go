package main

import (
	"context"

	"github.com/LiveRamp/hllarray/pkg/store"
	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdPublish struct {
	Name   string `long:"name" required:"true" description:"Name of the stored array"`
	Prefix string `long:"prefix" description:"Prefix of published keys. If empty, the array name and a colon"`

	cfg *BaseCfg
}

func (cmd *cmdPublish) Execute([]string) error {
	mbp.InitLog(cmd.cfg.Log)

	var ctx = context.Background()
	var st = openStore(cmd.cfg)
	defer st.Close()

	var arr, err = st.Get(ctx, cmd.Name)
	mbp.Must(err, "failed to fetch array", "name", cmd.Name)

	if cmd.Prefix == "" {
		cmd.Prefix = cmd.Name + ":"
	}
	var client = cmd.cfg.Store.RedisClient()
	defer client.Close()

	mbp.Must(store.Publish(ctx, client, cmd.Prefix, arr), "failed to publish array",
		"addr", cmd.cfg.Store.RedisAddr)

	log.WithFields(log.Fields{
		"name":     cmd.Name,
		"prefix":   cmd.Prefix,
		"counters": arr.Spec().ArraySize,
	}).Info("published array")
	return nil
}
