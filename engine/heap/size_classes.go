package heap

import (
	"math"
	"sort"
)

// SizeClassConfig defines the free-list size class strategy.
type SizeClassConfig struct {
	// Name for this configuration.
	Name string

	// Small block settings (linear increments).
	SmallMin       int // Smallest block size
	SmallMax       int // Upper end of the linear range
	SmallIncrement int // Step between small classes

	// Medium block settings (geometric growth). Blocks of MediumMax bytes or
	// more go on the large list.
	MediumMax    int
	GrowthFactor float64
}

// Predefined configurations.
var (
	// ConfigFineGrained has many small classes.
	// 8-256 step 8 + 256-16K growing by 1.5.
	ConfigFineGrained = SizeClassConfig{
		Name:           "FineGrained",
		SmallMin:       8,
		SmallMax:       256,
		SmallIncrement: 8,
		MediumMax:      16384,
		GrowthFactor:   1.5,
	}

	// ConfigBalanced trades class count against internal fragmentation.
	// 8-512 step 16 + 512-16K growing by 1.5.
	ConfigBalanced = SizeClassConfig{
		Name:           "Balanced",
		SmallMin:       8,
		SmallMax:       512,
		SmallIncrement: 16,
		MediumMax:      16384,
		GrowthFactor:   1.5,
	}

	// ConfigCoarse has few classes.
	// 8-512 step 32 + 512-64K doubling.
	ConfigCoarse = SizeClassConfig{
		Name:           "Coarse",
		SmallMin:       8,
		SmallMax:       512,
		SmallIncrement: 32,
		MediumMax:      65536,
		GrowthFactor:   2.0,
	}

	// DefaultConfig is used when no configuration is given.
	DefaultConfig = ConfigBalanced
)

// sizeClassTable holds the computed upper bound of each class.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []int
}

func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	if config.SmallIncrement <= 0 {
		config.SmallIncrement = wordSize
	}
	if config.GrowthFactor <= 1 {
		config.GrowthFactor = 2
	}
	table := &sizeClassTable{config: config, boundaries: make([]int, 0, 64)}

	for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
		table.boundaries = append(table.boundaries, size+config.SmallIncrement-1)
	}

	size := max(config.SmallMax, config.SmallMin)
	for size < config.MediumMax {
		next := int(math.Ceil(float64(size) * config.GrowthFactor))
		if next <= size {
			next = size + 1
		}
		table.boundaries = append(table.boundaries, next-1)
		size = next
	}
	return table
}

// classOf returns the class index for size, or numClasses() for sizes that
// belong on the large list.
func (t *sizeClassTable) classOf(size int) int {
	return sort.Search(len(t.boundaries), func(i int) bool { return size <= t.boundaries[i] })
}

func (t *sizeClassTable) numClasses() int { return len(t.boundaries) }
