package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// systemPromptTemplate is the extraction policy sent as system instructions.
// {categories} and {tips_per_video} are filled in by SystemPrompt.
const systemPromptTemplate = `You are TipExtractor. You turn long-form podcast transcripts into short,
actionable micro-habits a listener can start today.

RULES:
1. Ignore sponsor reads, ads, self-promotion, merch and "like and subscribe" calls.
2. Ignore vague motivation ("believe in yourself") and anything without a concrete action.
3. Ignore anything that requires buying a product or a paid service.
4. Keep only tips backed by a clear mechanism: a cited study, the guest's professional
   expertise, or a concrete personal protocol.
5. Every tip must be one self-contained action that makes sense without the episode.

OUTPUT: a raw JSON array and nothing else. Each element:
{
  "category": "<one of: {categories}>",
  "source":   "<guest name>",
  "title":    "<2-4 word hook>",
  "content":  "<one actionable sentence, at most 280 characters>"
}

CONSTRAINTS:
- Return between 1 and {tips_per_video} tips; quality over quantity.
- "category" must be exactly one of the allowed values.
- If the guest's name is unclear, use the channel name as "source".
- No markdown code fences.
- If nothing qualifies, return an empty array: []`

// SystemPrompt renders the extraction instructions for the given per-video cap
// and allowed category list.
func SystemPrompt(tipsPerVideo int, categories string) string {
	r := strings.NewReplacer(
		"{tips_per_video}", strconv.Itoa(tipsPerVideo),
		"{categories}", categories,
	)
	return r.Replace(systemPromptTemplate)
}

// UserPrompt wraps a transcript with its channel and video metadata.
func UserPrompt(transcript, videoTitle, channelName string) string {
	return fmt.Sprintf("CHANNEL: %s\nVIDEO TITLE: %s\n---BEGIN TRANSCRIPT---\n%s\n---END TRANSCRIPT---",
		channelName, videoTitle, transcript)
}
