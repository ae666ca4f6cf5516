// Package main provides the entry point for prefetchsim, a demo driver that
// runs a synthetic address trace through democache.Cache with the two-tier
// prefetcher attached, and prints the resulting stats.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/sarchlab/m2prefetch/prefetch/democache"
	"github.com/sarchlab/m2prefetch/prefetch/host"
	"github.com/sarchlab/m2prefetch/prefetch/selector"
)

var (
	configPath = flag.String("config", "", "Path to selector configuration JSON file")
	numAccess  = flag.Int("accesses", 200000, "Number of demand accesses to simulate")
	numStreams = flag.Int("streams", 4, "Number of concurrent synthetic streams")
	stride     = flag.Int("stride", 1, "Stride between consecutive accesses within a stream, in blocks")
	noise      = flag.Int("noise", 5, "Percent chance a stream access is replaced by unrelated random traffic")
	seed       = flag.Int64("seed", 1, "Random seed for the synthetic trace generator")
	verbose    = flag.Bool("v", false, "Print a progress report every 50000 cycles")
)

func main() {
	flag.Parse()

	cfg := selector.DefaultConfig()
	if *configPath != "" {
		loaded, err := selector.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading selector config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	sel := selector.New(cfg)
	c := democache.New(democache.DefaultConfig(), nil, sel)

	trace := newSyntheticTrace(*numStreams, *stride, *noise, *seed)

	for i := 0; i < *numAccess; i++ {
		addr := trace.next()
		c.Access(addr, host.AccessLoad)
		c.CycleOperate()

		if *verbose && (i+1)%50000 == 0 {
			fmt.Printf("-- after %d accesses --\n", i+1)
			fmt.Println(c.Report())
		}
	}

	fmt.Printf("\nFinal report (run %s):\n", c.RunID())
	c.FinalStats()
}

// syntheticTrace interleaves numStreams independent constant-stride address
// streams, occasionally substituting unrelated random traffic so both the
// transformer's noise filter and the selector's set dueling have something
// real to work against.
type syntheticTrace struct {
	rng        *rand.Rand
	streamNext []uint64
	strideAddr uint64
	noisePct   int
}

const blockSize = 64

func newSyntheticTrace(numStreams, strideBlocks, noisePct int, seed int64) *syntheticTrace {
	if numStreams < 1 {
		numStreams = 1
	}
	rng := rand.New(rand.NewSource(seed))

	next := make([]uint64, numStreams)
	for i := range next {
		next[i] = uint64(i) * 0x1_0000_0000
	}

	return &syntheticTrace{
		rng:        rng,
		streamNext: next,
		strideAddr: uint64(strideBlocks) * blockSize,
		noisePct:   noisePct,
	}
}

func (t *syntheticTrace) next() uint64 {
	if t.rng.Intn(100) < t.noisePct {
		return uint64(t.rng.Int63())
	}

	i := t.rng.Intn(len(t.streamNext))
	addr := t.streamNext[i]
	t.streamNext[i] += t.strideAddr
	return addr
}
