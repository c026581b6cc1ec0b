// Check program for a running concept-recognition service
// This shows what the service recognizes in a few typical report sentences
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/tagger"
)

func main() {
	url := flag.String("url", model.DefaultConfig().Tagger.URL, "service URL")
	flag.Parse()

	fmt.Println("=== Concept Recognition Check ===")
	fmt.Println()

	cfg := model.DefaultConfig().Tagger
	cfg.URL = *url
	client := tagger.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		fmt.Printf("✗ %s is not answering: %v\n", client.URL(), err)
		os.Exit(1)
	}
	fmt.Printf("✓ %s is up\n\n", client.URL())

	// Sentences chosen to exercise negation, ambiguity and history cues
	samples := []string{
		"Invasive ductal carcinoma of the left breast.",
		"No evidence of lymphovascular invasion.",
		"Findings are suspicious for, but not diagnostic of, melanoma.",
		"History of prostate adenocarcinoma, status post prostatectomy.",
		"Margins are negative for tumor. Naïve café-au-lait macules noted.",
	}

	for _, text := range samples {
		fmt.Printf("Text: %s\n", text)
		fmt.Println(strings.Repeat("-", 60))

		resp, err := client.Tag(ctx, text)
		if err != nil {
			fmt.Printf("  Tag error: %v\n\n", err)
			continue
		}

		fmt.Printf("  Sentences: %d\n", len(resp.Sentences))
		for _, c := range resp.Concepts {
			mark := " "
			if c.IsNegated {
				mark = "-"
			}
			end := c.Start + c.Length
			if end > len(text) {
				end = len(text)
			}
			fmt.Printf("  %s %-9s %3d %-12q %s\n", mark, c.ID, c.Start, text[c.Start:end], c.PartOfSpeech)
		}
		fmt.Println()
	}

	fmt.Println("=== Check Complete ===")
	fmt.Println("\nNote: offsets are byte offsets into the text sent.")
	fmt.Println("Negation marks come from the service, before any rules are applied.")
}
