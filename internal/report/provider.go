package report

import (
	"os"
	"sort"
	"strings"
)

// Provider describes one chat-completions endpoint usable for summarization.
// The table is immutable configuration fixed at startup.
type Provider struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	EnvVar  string `json:"env_var"`
}

var providers = map[string]Provider{
	"DeepSeek": {
		Name:    "DeepSeek",
		BaseURL: "https://api.deepseek.com/v1",
		Model:   "deepseek-chat",
		EnvVar:  "DEEPSEEK_API_KEY",
	},
}

// LookupProvider resolves a provider display name.
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[name]
	return p, ok
}

// ListProviders returns the provider table sorted by name.
func ListProviders() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResolveAPIKey picks the credential for a provider: an explicit
// caller-supplied key wins, else the provider's environment variable, else
// no key (summarization is skipped, never a crash).
func ResolveAPIKey(p Provider, userKey string) (string, bool) {
	if k := strings.TrimSpace(userKey); k != "" {
		return k, true
	}
	if p.EnvVar != "" {
		if k := os.Getenv(p.EnvVar); k != "" {
			return k, true
		}
	}
	return "", false
}
