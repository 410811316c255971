package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/LiveRamp/hllarray/pkg/store"
	"github.com/pkg/errors"
	mbp "go.gazette.dev/core/mainboilerplate"
	"gopkg.in/yaml.v2"
)

// openStore opens the configured Store, or exits.
func openStore(cfg *BaseCfg) store.Store {
	var st, err = cfg.Store.Open()
	mbp.Must(err, "failed to open store", "backend", cfg.Store.Backend)
	return st
}

// validCounter returns an error if |k| isn't a counter of |spec|.
func validCounter(spec hll.ArraySpec, k int) error {
	if k < 0 || k >= spec.ArraySize {
		return errors.Errorf("counter %d out of range [0, %d)", k, spec.ArraySize)
	}
	return nil
}

// writeEstimates writes "counter<TAB>estimate" rows of |arr| to |w|. If
// |counter| is non-negative, only that counter is written.
func writeEstimates(w io.Writer, arr *hll.CounterArray, counter int) error {
	var out = csv.NewWriter(w)
	out.Comma = '\t'

	var begin, end = 0, arr.Spec().ArraySize
	if counter >= 0 {
		begin, end = counter, counter+1
	}
	for k := begin; k != end; k++ {
		if err := out.Write([]string{
			strconv.Itoa(k),
			strconv.FormatFloat(arr.Count(k), 'f', 0, 64),
		}); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// encode writes |v| to |w| in |format| (yaml or json).
func encode(w io.Writer, format string, v interface{}) error {
	if format == "json" {
		var enc = json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(v)
	}
	var enc = yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// description is an ArraySpec with its derived parameters.
type description struct {
	hll.ArraySpec `yaml:",inline"`

	Registers                 int     `yaml:"registers" json:"registers"`
	RelativeStandardDeviation float64 `yaml:"relativeStandardDeviation" json:"relativeStandardDeviation"`
	BitsPerCounter            int     `yaml:"bitsPerCounter" json:"bitsPerCounter"`
	TotalBytes                int64   `yaml:"totalBytes" json:"totalBytes"`
}

func describe(spec hll.ArraySpec) description {
	var bits = spec.RegisterSize << uint(spec.Log2m)

	return description{
		ArraySpec:                 spec,
		Registers:                 1 << uint(spec.Log2m),
		RelativeStandardDeviation: hll.RelativeStandardDeviation(spec.Log2m),
		BitsPerCounter:            bits,
		TotalBytes:                (int64(spec.ArraySize)*int64(bits) + 7) / 8,
	}
}
