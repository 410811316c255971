// Package ingest reads newline-delimited values and adds them, in parallel,
// to the counters of a SyncArray.
package ingest

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	valuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hllarray_ingest_values_total",
		Help: "Total number of values added to counter arrays.",
	})
	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hllarray_ingest_errors_total",
		Help: "Total number of ingestion runs which failed.",
	})
)

const (
	batchSize        = 1024    // Records per batch handed to a worker.
	progressInterval = 1 << 20 // Lines between progress logs.
	maxLineSize      = 1 << 20 // Longest accepted input line.
)

// Record is a value to be added to a counter.
type Record struct {
	Counter int
	Value   int64
}

// ParseRecord parses a record line, which is either "value" (counting into
// counter zero) or "counter<TAB>value".
func ParseRecord(line string) (Record, error) {
	var tab = strings.IndexByte(line, '\t')
	if tab == -1 {
		return Record{Value: ParseValue(line)}, nil
	}
	var k, err = strconv.Atoi(line[:tab])
	if err != nil {
		return Record{}, errors.Errorf("invalid counter %q", line[:tab])
	}
	return Record{Counter: k, Value: ParseValue(line[tab+1:])}, nil
}

// ParseValue maps |s| to the int64 added to a counter. Decimal integers are
// used as-is. Other strings are hashed, so that equal strings always count
// as one distinct value.
func ParseValue(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return int64(xxhash.Sum64String(s))
}

// Stats summarizes a completed Run.
type Stats struct {
	Lines  int64 // Lines read, including blank lines.
	Values int64 // Values read.
}

// Run reads records from |r| and adds them to |arr| using |workers|
// goroutines, until |r| is exhausted or |ctx| is cancelled. A malformed line
// or out-of-range counter aborts the Run with an error naming its line.
func Run(ctx context.Context, r io.Reader, arr *hll.SyncArray, workers int) (Stats, error) {
	if workers <= 0 {
		workers = 1
	}
	var size = arr.Spec().ArraySize
	var batches = make(chan []Record, workers)
	var grp, gctx = errgroup.WithContext(ctx)
	var stats Stats

	var send = func(batch []Record) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		select {
		case batches <- batch:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	}

	// Reader loop: parse and validate lines, handing off batches.
	grp.Go(func() error {
		defer close(batches)

		var br = bufio.NewScanner(r)
		br.Buffer(make([]byte, 64*1024), maxLineSize)
		var batch = make([]Record, 0, batchSize)

		for br.Scan() {
			stats.Lines++
			var line = strings.TrimSuffix(br.Text(), "\r")

			if stats.Lines%progressInterval == 0 {
				log.WithFields(log.Fields{
					"lines":  stats.Lines,
					"values": stats.Values,
				}).Info("ingest progress")
			}
			if line == "" {
				continue
			}
			var rec, err = ParseRecord(line)
			if err != nil {
				return errors.WithMessagef(err, "line %d", stats.Lines)
			} else if rec.Counter < 0 || rec.Counter >= size {
				return errors.Errorf("line %d: counter %d out of range [0, %d)", stats.Lines, rec.Counter, size)
			}
			stats.Values++

			if batch = append(batch, rec); len(batch) == batchSize {
				if err = send(batch); err != nil {
					return err
				}
				batch = make([]Record, 0, batchSize)
			}
		}
		if err := br.Err(); err != nil {
			return errors.WithMessagef(err, "reading line %d", stats.Lines+1)
		}
		if len(batch) != 0 {
			return send(batch)
		}
		return nil
	})

	// Worker loops: apply batches.
	for i := 0; i != workers; i++ {
		grp.Go(func() error {
			for batch := range batches {
				for _, rec := range batch {
					arr.Add(rec.Counter, rec.Value)
				}
				valuesTotal.Add(float64(len(batch)))
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		errorsTotal.Inc()
		return stats, err
	}
	log.WithFields(log.Fields{
		"lines":  stats.Lines,
		"values": stats.Values,
	}).Debug("ingest complete")
	return stats, nil
}
