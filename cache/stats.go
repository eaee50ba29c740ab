package cache

// Stats reports point-in-time usage and hit-rate counters for a Cache or
// ShardedCache. Len/Capacity/TotalCapacity describe current occupancy;
// Hits/Misses/Evictions and the derived HitRate describe cumulative
// access history since construction or the last ResetStats call.
type Stats struct {
	Len           int
	Capacity      int
	TotalCapacity int
	Hits          uint64
	Misses        uint64
	HitRate       float64
	Evictions     uint64
}
