package main

import (
	"os"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/LiveRamp/hllarray/internal"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type cmdParams struct {
	Array  internal.ArrayConfig `group:"Array"`
	Format string               `long:"format" short:"o" choice:"yaml" choice:"json" default:"yaml" description:"Output format"`
}

func (cmd *cmdParams) Execute([]string) error {
	mbp.Must(cmd.Array.Validate(), "invalid array configuration")

	var seed, _ = cmd.Array.ParseSeed()
	var spec = hll.ArraySpec{
		ArraySize:    cmd.Array.ArraySize,
		Log2m:        cmd.Array.Log2M(),
		RegisterSize: hll.RegisterSize(cmd.Array.N),
		Seed:         seed,
	}
	mbp.Must(spec.Validate(), "invalid array configuration")

	return encode(os.Stdout, cmd.Format, describe(spec))
}
