package llm

import "sort"

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":       "gpt-4o",
	"gpt-4o-mini":  "gpt-4o-mini",
	"gpt-4.1":      "gpt-4.1",
	"gpt-4.1-mini": "gpt-4.1-mini",
}

// anthropicModels maps friendly names to Anthropic model IDs.
var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	ID       string `json:"id"`
}

// Models returns the fixed model catalogue, sorted by provider then name.
func Models() []ModelInfo {
	var out []ModelInfo
	for provider, table := range catalogue() {
		for name, id := range table {
			out = append(out, ModelInfo{Provider: provider, Name: name, ID: id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// IsKnownModel reports whether name is a friendly name or model ID in the
// provider's catalogue.
func IsKnownModel(provider, name string) bool {
	table, ok := catalogue()[provider]
	if !ok {
		return false
	}
	for friendly, id := range table {
		if name == friendly || name == id {
			return true
		}
	}
	return false
}

func catalogue() map[string]map[string]string {
	return map[string]map[string]string{
		"openai":    openaiModels,
		"anthropic": anthropicModels,
		"gemini":    geminiModels,
	}
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// If not in the map, use as-is (allows direct model IDs).
	return name
}
