// Bench times the layered set against a B-tree and a comparison sort over
// the same sparse workload, and prints the results as JSON bar-chart
// models. Pass -profile to capture a wall-clock profile of the run.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/felixge/fgprof"
	"github.com/gernest/layered"
	"github.com/google/btree"
)

type model struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Step    float64 `json:"step"`
	Entries []entry `json:"entries"`
}

type entry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func main() {
	var (
		size    = flag.Uint64("n", 1_000_000, "key range to cover")
		step    = flag.Uint64("step", 10, "distance between inserted keys")
		block   = flag.Uint64("block", 1<<16, "bits per second-layer block")
		profile = flag.String("profile", "", "write a wall-clock profile to this file")
	)
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer func() {
			stop()
			f.Close()
		}()
	}

	vals := make([]int64, 0, *size / *step)
	for v := uint64(0); v < *size; v += *step {
		vals = append(vals, int64(v))
	}
	probe := vals[len(vals)/2]

	set, err := layered.New(layered.WithCapacity(*size), layered.WithBlockSize(*block))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tree := btree.NewG(32, func(a, b int64) bool { return a < b })

	models := []model{
		timed("insert", "ms", func() {
			for _, v := range vals {
				set.Insert(v)
			}
		}, func() {
			for _, v := range vals {
				tree.ReplaceOrInsert(v)
			}
		}, func() {
			shuffled := slices.Clone(vals)
			rand.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			slices.Sort(shuffled)
		}),
		timed("contains", "us", func() {
			set.Contains(probe)
		}, func() {
			tree.Has(probe)
		}, nil),
		timed("next", "us", func() {
			set.Next(probe)
		}, func() {
			tree.AscendGreaterOrEqual(probe+1, func(int64) bool { return false })
		}, nil),
		timed("previous", "us", func() {
			set.Previous(probe)
		}, func() {
			tree.DescendLessOrEqual(probe-1, func(int64) bool { return false })
		}, nil),
		timed("traverse", "ms", func() {
			for range set.Ascend() {
			}
		}, func() {
			tree.Ascend(func(int64) bool { return true })
		}, nil),
	}

	json.NewEncoder(os.Stdout).Encode(models)
}

func timed(name, unit string, set, tree, sorted func()) model {
	scale := float64(time.Millisecond)
	if unit == "us" {
		scale = float64(time.Microsecond)
	}
	m := model{Name: name, Unit: unit, Step: 1}
	run := func(label string, fn func()) {
		if fn == nil {
			return
		}
		start := time.Now()
		fn()
		m.Entries = append(m.Entries, entry{
			Name:  label,
			Value: float64(time.Since(start)) / scale,
		})
	}
	run("layered", set)
	run("btree", tree)
	run("sort", sorted)
	return m
}
