package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/studydeck/internal/flowchart"
	"github.com/TobiSchelling/studydeck/internal/ingest"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/normalize"
	"github.com/TobiSchelling/studydeck/internal/pipeline"
	"github.com/TobiSchelling/studydeck/internal/quiz"
	"github.com/TobiSchelling/studydeck/internal/tier"
)

var jsonOutput bool

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Extract and normalize the text of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ingester := ingest.NewPipeline(nil, cfg.MaxUploadBytes(), cfg.Ingestion.MinContentChars, log)
		_, content, err := ingester.IngestFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		pages, t := tier.For(content)
		fmt.Fprintf(os.Stderr, "%d words, %s, %s summary tier, about %d min read\n",
			normalize.WordCount(content), tier.LengthLabel(pages), t.Name, tier.ReadTime(content))
		fmt.Println(content)
		return nil
	},
}

// --- summarize command ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _ := pipeline.FromConfig(cmd.Context(), cfg, nil, log)
		up, err := p.Ingester().ReadFile(args[0])
		if err != nil {
			return err
		}

		r, err := p.Process(cmd.Context(), "", up, "")
		if err != nil {
			return err
		}
		s := r.Document.Summary
		if jsonOutput {
			return printJSON(s)
		}

		fmt.Printf("%s\n\n%s\n", s.Title, s.Summary)
		if len(s.Highlights) > 0 {
			fmt.Println("\nHighlights:")
			for _, h := range s.Highlights {
				fmt.Printf("  - %s\n", h)
			}
		}
		if len(s.KeyTopics) > 0 {
			fmt.Printf("\nKey topics: %s\n", strings.Join(s.KeyTopics, ", "))
		}
		fmt.Printf("\nEstimated read time: %d min", s.EstimatedReadTime)
		if s.Source == models.SourceFallback {
			fmt.Print(" (generic summary, the model was unavailable)")
		}
		fmt.Println()
		return nil
	},
}

// --- quiz command ---

var (
	quizDifficulty string
	quizCount      int
)

var quizCmd = &cobra.Command{
	Use:   "quiz <file>",
	Short: "Generate practice questions for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := models.ParseDifficulty(quizDifficulty)
		if err != nil {
			return err
		}

		p, gateway := pipeline.FromConfig(cmd.Context(), cfg, nil, log)
		_, content, err := p.Ingester().IngestFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		count := quizCount
		if count <= 0 {
			count = quiz.QuestionCount(d, content)
		}
		gen := quiz.NewGenerator(gateway, cfg.Completion.MaxInputChars, log)
		questions, source := gen.Generate(cmd.Context(), content, d, count)
		if jsonOutput {
			return printJSON(map[string]any{"difficulty": d, "source": source, "questions": questions})
		}

		fmt.Printf("%s test, %d questions (%s)\n", d.Title(), len(questions), source)
		for i, q := range questions {
			fmt.Printf("\n%d. %s\n", i+1, q.Question)
			for j, opt := range q.Options {
				mark := " "
				if j == q.CorrectAnswer {
					mark = "*"
				}
				fmt.Printf("   %s %c) %s\n", mark, 'A'+j, opt)
			}
			fmt.Printf("   %s [%s]\n", q.Explanation, q.Topic)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{summarizeCmd, quizCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	}
	quizCmd.Flags().StringVarP(&quizDifficulty, "difficulty", "d", "medium", "Difficulty: easy, medium or hard")
	quizCmd.Flags().IntVarP(&quizCount, "count", "n", 0, "Number of questions (default depends on document length)")
}

// --- flowchart command ---

var flowchartOut string

var flowchartCmd = &cobra.Command{
	Use:   "flowchart <description...>",
	Short: "Draw a flowchart or classification diagram",
	Long: "Generates a flowchart program from a description. Ask for \"text format\" or " +
		"\"ascii\" to get a plain-text diagram instead.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen := flowchart.NewGenerator(newGateway(cmd.Context()), log)
		a := gen.Generate(cmd.Context(), strings.Join(args, " "))

		if flowchartOut != "" {
			if err := os.WriteFile(flowchartOut, []byte(flowchart.Export(a)), 0o644); err != nil {
				return fmt.Errorf("writing diagram: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s diagram to %s\n", a.Kind, flowchartOut)
			return nil
		}
		if a.Source == models.SourceFallback {
			fmt.Fprintln(os.Stderr, "The model output was unusable; showing a template diagram.")
		}
		fmt.Print(flowchart.Export(a))
		return nil
	},
}

func init() {
	flowchartCmd.Flags().StringVarP(&flowchartOut, "out", "o", "", "Write the diagram to a file")
}

// --- ask command ---

var askCmd = &cobra.Command{
	Use:   "ask <question or link...>",
	Short: "Ask a study question, or summarize a YouTube video or web article",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newAskMe(cmd.Context(), newGateway(cmd.Context()))
		a := svc.Ask(cmd.Context(), strings.Join(args, " "))

		switch {
		case a.VideoTitle != "":
			fmt.Printf("Video: %s\n\n", a.VideoTitle)
		case a.ArticleTitle != "":
			fmt.Printf("Article: %s\n\n", a.ArticleTitle)
		case a.HasLiveInfo:
			fmt.Println("(includes recent web results)")
			fmt.Println()
		}
		fmt.Println(a.Response)
		return nil
	},
}
