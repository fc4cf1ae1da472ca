package gateway

import "google.golang.org/genai"

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func stringArraySchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

var adScriptsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"hook":         stringSchema(""),
			"script":       stringSchema(""),
			"avatarName":   stringSchema(""),
			"visualPrompt": stringSchema(""),
			"memoryNote":   stringSchema(""),
		},
		Required: []string{"hook", "script", "avatarName", "visualPrompt", "memoryNote"},
	},
}

var successInsightSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"headline":    stringSchema("Punchy headline like 'Platform-First Mastery'"),
		"summaryText": stringSchema("Two-sentence summary of why the ad performed."),
		"reasons": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"label":       stringSchema("Short label like 'TikTok Native'"),
					"value":       stringSchema("The specific stat like '78% Traffic'"),
					"description": stringSchema("Brief explanation of the causality."),
				},
				Required: []string{"label", "value", "description"},
			},
		},
		"replicationStrategy": stringSchema("One-sentence advice for the next ad."),
	},
	Required: []string{"headline", "summaryText", "reasons", "replicationStrategy"},
}

var productInfoSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"productName": stringSchema(""),
		"description": stringSchema("A punchy 2-sentence ad brief about target audience and pain points."),
	},
	Required: []string{"productName", "description"},
}

var safetySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isNsfw": {Type: genai.TypeBoolean},
		"reason": stringSchema("One short sentence explaining the verdict."),
	},
	Required: []string{"isNsfw", "reason"},
}

var socialCaptionsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tiktok":    stringArraySchema(),
		"instagram": stringArraySchema(),
		"youtube":   stringArraySchema(),
		"hashtags":  stringArraySchema(),
	},
	Required: []string{"tiktok", "instagram", "youtube", "hashtags"},
}
