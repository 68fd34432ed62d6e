// Package sources holds the YouTube collaborators of the tip pipeline.
//
// The implementation is split across files by responsibility:
//
//	youtube_search.go     video discovery (Data API v3 + channel feed fallback)
//	youtube_transcript.go transcript fetching (watch page + ANDROID player fallback)
//	youtube_innertube.go  Innertube API types, constants and the /player call
//	transcript_cache.go   two-tier transcript cache decorator
package sources
