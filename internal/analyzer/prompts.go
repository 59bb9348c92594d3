// internal/analyzer/prompts.go
package analyzer

import (
	"fmt"
	"strings"

	"meal-ai/internal/config"
	"meal-ai/internal/models"
	"meal-ai/internal/provider"
)

const systemPrompt = `You are a nutrition expert and meal analyst.

Work through these steps before answering:
1. Identify every edible component and group them.
2. Estimate the weights using scale cues such as plates, cutlery and hands, including absorbed oil and sauces.
3. Estimate carbohydrates, protein and fat in grams.
4. Check that the totals are realistic for the portion.

Return ONLY a JSON object. No Markdown, no code fences, no text outside the JSON.
Values are grams as plain numbers with a dot as decimal separator, never negative, never ranges.`

const flatSchema = `{
  "meal_name": "short name of the meal",
  "carbs_g": number,
  "protein_g": number,
  "fat_g": number
}`

const fullSchema = `{
  "mealName": "short name of the meal",
  "analysis": {
    "totals": {"carbs_g": number, "protein_g": number, "fat_g": number},
    "per100g": {"carbs_g": number, "protein_g": number, "fat_g": number},
    "foods": [
      {"name": "food", "carbs_g": number, "protein_g": number, "fat_g": number,
       "estimated_weight_g": number, "confidence": number between 0 and 1, "notes": "text"}
    ]
  },
  "explanation": "per-component breakdown",
  "reasoning": "how the estimate was made"
}`

const advancedFields = "fatProteinUnits, netCarbsAdjustment, insulinTimingRecommendations, " +
	"fpuDosingGuidance, exerciseConsiderations, absorptionTimeReasoning, mealSizeImpact, " +
	"individualizationFactors, safetyAlerts"

// maxTokens per mode. The flat answer is tiny; breakdowns need room.
var maxTokens = map[config.AnalysisMode]int{
	config.ModeNormal:  200,
	config.ModeHigh:    900,
	config.ModePremium: 1200,
}

func languageLine(lang config.Language) string {
	if lang == config.LanguageEN {
		return "Write every free-text value in English."
	}
	return "Write every free-text value in Finnish (suomeksi)."
}

func schemaFor(mode config.AnalysisMode) string {
	switch mode {
	case config.ModeHigh:
		return "Return this shape:\n" + fullSchema
	case config.ModePremium:
		return "Return this shape:\n" + fullSchema +
			"\nEvery food MUST include estimated_weight_g; the weights are used to recompute the totals."
	}
	return "Return exactly this minimal shape:\n" + flatSchema
}

func advancedLine(s config.Settings) string {
	if !s.AdvancedDosingEnabled {
		return ""
	}
	return "\nAlso add these top-level string fields: " + advancedFields + "."
}

// imageRequest builds the request for a meal photo.
func imageRequest(s config.Settings, image []byte, hint string) provider.Request {
	var b strings.Builder
	b.WriteString("Analyze the meal in the image and estimate its macronutrients for the portion shown.\n")
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "User hint: %s\n", hint)
	}
	b.WriteString(schemaFor(s.AnalysisMode))
	b.WriteString(advancedLine(s))
	b.WriteString("\n")
	b.WriteString(languageLine(s.Language))

	return provider.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   b.String(),
		Image:        image,
		MaxTokens:    maxTokens[s.AnalysisMode],
		ForceJSON:    true,
	}
}

// textRequest builds the request for a typed or spoken food, optionally
// refining known base values.
func textRequest(s config.Settings, query, hint string, base *models.BaseInfo) provider.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "User food query: %s\n", strings.TrimSpace(query))
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "User hint: %s\n", hint)
	}
	b.WriteString("Task: return nutrition for the consumed portion. If base values are known, refine them rather than guessing anew.\n")
	if base != nil {
		fmt.Fprintf(&b, "Known base per 100 g: name=%s, carbs=%s, protein=%s, fat=%s.",
			base.Name, formatOptional(base.Carbs), formatOptional(base.Protein), formatOptional(base.Fat))
		if base.ServingSize != "" {
			fmt.Fprintf(&b, " Serving size: %s.", base.ServingSize)
		}
		b.WriteString("\n")
	}
	b.WriteString(schemaFor(s.AnalysisMode))
	b.WriteString(advancedLine(s))
	b.WriteString("\n")
	b.WriteString(languageLine(s.Language))

	return provider.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   b.String(),
		MaxTokens:    maxTokens[s.AnalysisMode],
		ForceJSON:    true,
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.1f", *v)
}

func pingRequest() provider.Request {
	return provider.Request{
		SystemPrompt: "healthcheck",
		UserPrompt:   "ping",
		MaxTokens:    5,
	}
}
