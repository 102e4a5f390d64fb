package main

import (
	"maps"
	"math/rand/v2"
	"slices"
)

var examples = map[string]string{
	"Review a contract against your policy":   `dossier -d Contract=contract.pdf -d Policy=policy.pdf "flag every clause that breaks the policy"`,
	"Summarize a web page":                    `dossier --mode summary -d https://example.com/terms`,
	"Review a diff with a pool of keys":       `git diff | dossier -M gemini-2.5-flash,gemini-2.0-flash "focus on error handling"`,
	"Use your own key when the pool runs dry": `dossier -k "$MY_KEY" -d report.pdf | glow`,
}

func randomExample() (string, string) {
	keys := slices.Sorted(maps.Keys(examples))
	desc := keys[rand.IntN(len(keys))]
	return desc, examples[desc]
}
