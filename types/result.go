package types

import "fmt"

// Source tells where a read was served from.
type Source string

const (
	SourceNone   Source = "none"
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Result is the outcome of a cache read. A miss always has Value nil and Source SourceNone,
// whatever caused it.
type Result struct {
	Hit    bool
	Value  any
	Source Source
}

// Miss is the zero-information read result.
var Miss = Result{Source: SourceNone}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits          int64  `json:"hits"`
	Misses        int64  `json:"misses"`
	RemoteHits    int64  `json:"redisHits"`
	RemoteMisses  int64  `json:"redisMisses"`
	MemorySize    int    `json:"memorySize"`
	RemoteEnabled bool   `json:"redisEnabled"`
	HitRate       string `json:"hitRate"`
}

// HitRateNA is reported before any lookup happened.
const HitRateNA = "N/A"

// FormatHitRate renders (hits + remoteHits) / (all four counters) as a percentage with one decimal.
func FormatHitRate(hits, misses, remoteHits, remoteMisses int64) string {
	total := hits + misses + remoteHits + remoteMisses
	if total == 0 {
		return HitRateNA
	}
	return fmt.Sprintf("%.1f%%", float64(hits+remoteHits)/float64(total)*100)
}
