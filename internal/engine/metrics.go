package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters for one process.
var metrics struct {
	DiscoveryRequests  atomic.Int64
	DiscoveryErrors    atomic.Int64
	FeedFallbacks      atomic.Int64
	TranscriptRequests atomic.Int64
	TranscriptsMissing atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	MalformedOutputs   atomic.Int64
	TipsRejected       atomic.Int64
	TipsDuplicate      atomic.Int64
	TipsAdded          atomic.Int64
	VideosProcessed    atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
}

var metricKeys = []string{
	"videos_processed",
	"discovery_requests", "discovery_errors", "feed_fallbacks",
	"transcript_requests", "transcripts_missing",
	"llm_calls", "llm_errors", "malformed_outputs",
	"tips_rejected", "tips_duplicate", "tips_added",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"videos_processed":    metrics.VideosProcessed.Load(),
		"discovery_requests":  metrics.DiscoveryRequests.Load(),
		"discovery_errors":    metrics.DiscoveryErrors.Load(),
		"feed_fallbacks":      metrics.FeedFallbacks.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"transcripts_missing": metrics.TranscriptsMissing.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"malformed_outputs":   metrics.MalformedOutputs.Load(),
		"tips_rejected":       metrics.TipsRejected.Load(),
		"tips_duplicate":      metrics.TipsDuplicate.Load(),
		"tips_added":          metrics.TipsAdded.Load(),
		"cache_hits":          metrics.CacheHits.Load(),
		"cache_misses":        metrics.CacheMisses.Load(),
	}
}

// FormatMetrics renders counters one per line as "name value".
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources and pipeline packages.
func IncrDiscovery()          { metrics.DiscoveryRequests.Add(1) }
func IncrDiscoveryError()     { metrics.DiscoveryErrors.Add(1) }
func IncrFeedFallback()       { metrics.FeedFallbacks.Add(1) }
func IncrTranscript()         { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptMissing()  { metrics.TranscriptsMissing.Add(1) }
func IncrMalformedOutput()    { metrics.MalformedOutputs.Add(1) }
func IncrTipsRejected(n int)  { metrics.TipsRejected.Add(int64(n)) }
func IncrTipsDuplicate(n int) { metrics.TipsDuplicate.Add(int64(n)) }
func IncrTipsAdded(n int)     { metrics.TipsAdded.Add(int64(n)) }
func IncrVideosProcessed()    { metrics.VideosProcessed.Add(1) }
