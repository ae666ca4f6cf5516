package selector

import "github.com/sarchlab/m2prefetch/prefetch/host"

const (
	// TransformerBit marks a prefetch as issued by the transformer-aware
	// stream prefetcher (spec §3.2, §4.B.1 - reserved bit 30).
	TransformerBit uint32 = 1 << 30
	// PythiaBit marks a prefetch as issued by the pythia source (reserved
	// bit 31).
	PythiaBit uint32 = 1 << 31
)

func isTransformerTagged(metadata uint32) bool {
	return metadata&TransformerBit != 0
}

func isPythiaTagged(metadata uint32) bool {
	return metadata&PythiaBit != 0
}

func tagTransformer(metadata uint32) uint32 {
	return host.TagBit(metadata, TransformerBit)
}

func tagPythia(metadata uint32) uint32 {
	return host.TagBit(metadata, PythiaBit)
}
