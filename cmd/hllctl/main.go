package main

import (
	"github.com/LiveRamp/hllarray/internal"
	"github.com/jessevdk/go-flags"
	mbp "go.gazette.dev/core/mainboilerplate"
)

type BaseCfg struct {
	Log   mbp.LogConfig        `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Store internal.StoreConfig `group:"Store" namespace:"store" env-namespace:"STORE"`
}

func main() {
	var baseCfg = new(BaseCfg)
	var parser = flags.NewParser(baseCfg, flags.Default)

	var _, err = parser.AddCommand("params",
		"Compute counter parameters",
		`Compute the register size, registers per counter, and memory footprint
of counters which count up to --n distinct elements with a target relative
standard deviation. No store is required.`,
		&cmdParams{},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("count",
		"Count distinct values of an input",
		`Read newline-delimited values from --input, add them to the counters of a
new (or, with --append, a stored) array, and store the array under --name.

Each input line is either a bare value, which is added to counter zero, or a
counter index and value separated by a tab. Values which parse as decimal
integers are counted as-is; all others are hashed. Estimates of each counter
are written to stdout as tab-separated rows:

    seq 1 1000000 | hllctl count --name clicks-2019 --n 1000000 --rsd 0.01
`,
		&cmdCount{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("estimate",
		"Estimate cardinalities of a stored array",
		"Write the estimated cardinality of each counter of a stored array.",
		&cmdEstimate{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("merge",
		"Merge stored arrays",
		`Merge the stored arrays named as arguments, storing the union under --into.
Arrays must share a hash seed and register configuration. If --counter-zero is
set, arrays may differ in size and only counter zero of each is merged.`,
		&cmdMerge{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("inspect",
		"Inspect a stored array",
		"Write the configuration and derived parameters of a stored array.",
		&cmdInspect{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("list",
		"List stored arrays",
		"List names of stored arrays, optionally restricted to a name prefix.",
		&cmdList{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("delete",
		"Delete stored arrays",
		"Delete the stored arrays named as arguments.",
		&cmdDelete{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("export",
		"Export a counter as a Redis or PipelineDB HLL",
		`Write a counter of a stored array, which must have log2m of 14, as a dense
Redis or PipelineDB HyperLogLog. Redis HLLs may be loaded with SET and then
queried with PFCOUNT or PFMERGE.`,
		&cmdExport{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	_, err = parser.AddCommand("publish",
		"Publish counters to Redis",
		`Write every counter of a stored array, which must have log2m of 14, to the
configured Redis server as native HyperLogLogs keyed by --prefix and the
counter index.`,
		&cmdPublish{cfg: baseCfg},
	)
	mbp.Must(err, "failed to add command")

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}

const iniFilename = "hllctl.ini"
