//go:build ignore

// Package main generates a synthetic notes directory for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -depth 3 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of notes to generate")
	depth     = flag.Int("depth", 3, "Maximum directory depth")
	words     = flag.Int("words", 300, "Words per note")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	nouns = []string{"meeting", "budget", "project", "garden", "recipe", "journey", "invoice",
		"lecture", "experiment", "harvest", "contract", "library", "festival", "workshop"}
	verbs = []string{"review", "plan", "discuss", "measure", "prepare", "visit", "compare",
		"publish", "repair", "schedule", "collect", "describe"}
	adjectives = []string{"quarterly", "quick", "careful", "early", "remote", "shared", "final",
		"brown", "quiet", "urgent", "annual", "local"}
	fillers = []string{"the", "a", "and", "of", "to", "with", "for", "on", "after", "before"}
	links   = []string{"https://example.com/notes", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	topics  = []string{"work", "home", "travel", "study", "archive"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d notes in %s (seed=%d)...\n", *numFiles, *outputDir, *seed)

	for i := range *numFiles {
		dir := *outputDir
		for range rng.Intn(*depth + 1) {
			dir = filepath.Join(dir, topics[rng.Intn(len(topics))])
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", dir, err)
			os.Exit(1)
		}

		name := fmt.Sprintf("%s_%s_%d.txt", pick(rng, adjectives), pick(rng, nouns), i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(note(rng)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write note %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d notes successfully.\n", *numFiles)
}

// note builds sentences of the form "<verb> the <adjective> <noun> ..." so
// that adjective-noun queries hit a realistic share of notes.
func note(rng *rand.Rand) string {
	var sb strings.Builder
	for n := 0; n < *words; {
		sentence := []string{
			pick(rng, verbs), pick(rng, fillers), pick(rng, adjectives), pick(rng, nouns),
			pick(rng, fillers), pick(rng, nouns),
		}
		if rng.Intn(20) == 0 {
			sentence = append(sentence, pick(rng, links))
		}
		sb.WriteString(strings.Join(sentence, " "))
		sb.WriteString(". ")
		n += len(sentence)
	}
	return sb.String()
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
