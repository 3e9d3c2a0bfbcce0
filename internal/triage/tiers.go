package triage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tiers is the keyword vocabulary per severity. Matching is case-insensitive substring containment.
type Tiers struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Moderate []string `yaml:"moderate"`
}

func DefaultTiers() Tiers {
	return Tiers{
		Critical: []string{
			"suicide", "suicidal", "kill myself", "end it all", "want to die",
			"end my life", "better off dead", "no reason to live", "take my own life",
		},
		High: []string{
			"self-harm", "self harm", "hurt myself", "cut myself", "hopeless",
			"worthless", "no way out", "can't go on", "burden to everyone",
		},
		Moderate: []string{
			"anxious", "overwhelmed", "panic", "can't cope", "depressed",
			"stressed", "scared", "lonely", "crying",
		},
	}
}

// LoadTiers reads a YAML vocabulary file. An empty path yields DefaultTiers.
func LoadTiers(path string) (Tiers, error) {
	if path == "" {
		return DefaultTiers(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tiers{}, fmt.Errorf("triage: read keywords: %w", err)
	}
	var t Tiers
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tiers{}, fmt.Errorf("triage: parse keywords: %w", err)
	}
	t = t.normalized()
	if len(t.Critical)+len(t.High)+len(t.Moderate) == 0 {
		return Tiers{}, fmt.Errorf("triage: %s defines no keywords", path)
	}
	return t, nil
}

func (t Tiers) normalized() Tiers {
	return Tiers{
		Critical: normalize(t.Critical),
		High:     normalize(t.High),
		Moderate: normalize(t.Moderate),
	}
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = fold(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// apostrophes maps typographic quotes to ASCII so "can’t" matches "can't".
var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'")

func fold(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}
