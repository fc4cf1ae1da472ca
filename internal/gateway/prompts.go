package gateway

import (
	"fmt"
	"strings"
)

func adScriptsPrompt(product, description, tone string, pastHeroScripts []string) string {
	memory := ""
	if len(pastHeroScripts) > 0 {
		lines := make([]string, 0, len(pastHeroScripts))
		for _, s := range pastHeroScripts {
			lines = append(lines, fmt.Sprintf("- %q", s))
		}
		memory = "\n\n[PERFORMANCE MEMORY]: The following scripts previously drove high conversion for this user. " +
			"Analyze their structure, hook style, and CTAs to inform the new suggestions:\n" +
			strings.Join(lines, "\n")
	}
	return fmt.Sprintf(`Generate 3 high-converting UGC ad scripts for: %s.
Details: %s.
Tone: %s.%s

For each, provide:
1. 'hook' (max 40 chars)
2. 'script' (max 200 chars)
3. 'avatarName' (creative name)
4. 'visualPrompt' for an image generator
5. 'memoryNote' (A very short explanation of which successful pattern from the past this script mimics, e.g., "Uses the high-CTR 'OMG' hook style")`,
		product, description, tone, memory)
}

func successInsightPrompt(script, topSource string, retentionMultiplier int) string {
	return fmt.Sprintf(`Analyze why this UGC ad worked.
Script: %q
Top Platform: %s
Retention Multiplier: %dx higher than average.

Provide a data-driven breakdown of success.`, script, topSource, retentionMultiplier)
}

func refinePrompt(currentScript, nudge string) string {
	return fmt.Sprintf(`Take this UGC script: %q.
Refine it based on this user nudge: %q.
Keep it high-converting, under 200 characters, and maintain a natural creator tone.
Return only the updated script text.`, currentScript, nudge)
}

func productURLPrompt(url string) string {
	return "Analyze this product URL and extract details for a UGC ad brief: " + url
}

func safetyPrompt(url, title string) string {
	return fmt.Sprintf(`Classify whether this link leads to adult, explicit or otherwise not-safe-for-work content.
Title: %q
URL: %s
Answer with isNsfw true only when the destination is clearly explicit.`, title, url)
}

func socialCaptionsPrompt(script string) string {
	return fmt.Sprintf(`Based on this UGC script: %q, generate platform-specific viral captions.
- TikTok: Short, punchy, high energy, uses emojis and clear CTAs like "Link in bio".
- Instagram: Engaging, community-focused, includes promo code placeholders and "🔗 in bio" CTAs.
- YouTube Shorts/Long: Descriptive, SEO-friendly, hooks for retention.
Also provide 5 trending hashtags.`, script)
}

func thumbnailPrompt(product, hook string) string {
	return fmt.Sprintf("A high-converting YouTube/TikTok video thumbnail. Features a happy creator holding %s. "+
		"Large, bold, legible yellow text overlay that says %q. High contrast, cinematic lighting, 4K.", product, hook)
}

func adVisualPrompt(prompt string) string {
	return "A high-quality 4K UGC creator style photo, cinematic lighting, portrait: " + prompt
}

func speechPrompt(text string) string {
	return "Say with a natural, energetic UGC creator voice: " + text
}

func videoPrompt(script string) string {
	return fmt.Sprintf("A vertical 9:16 UGC-style ad. A relatable creator talks straight to camera and says: %q. "+
		"Natural handheld framing, soft daylight, authentic home setting, cinematic color grading.", script)
}

const (
	transcribePrompt   = "Transcribe this audio exactly. It is a UGC creator speaking."
	analyzeImagePrompt = "Analyze this product photo. What is the product, its key features, and what kind of " +
		"aesthetic does it have? Summarize in 2 sentences for an ad brief."
	analyzeBaseVideoPrompt = "Analyze this base video for an ad. What are the key visual elements, lighting, and style? " +
		"How can we enhance this with AI creators? Provide 3 specific suggestions for a high-converting ad based on this specific footage."
	localEventsPrompt = "Find 3 interesting creator-focused venues, co-working spaces, or event locations near my " +
		"coordinates for a UGC meet-up."
	baseVideoFallback = "Base video analysis failed."
)

func retentionPrompt(script string) string {
	return fmt.Sprintf("Based on this frame and this script: %q, predict the retention potential. "+
		"What is the strongest hook element?", script)
}
