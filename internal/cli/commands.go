package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zombar/contentlens/internal/analyzer"
	"github.com/zombar/contentlens/internal/content"
	"github.com/zombar/contentlens/internal/extract"
)

var errNoInput = errors.New("no content to analyze")

func newAnalyzeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [FILE|-]",
		Short: "Score hook, structure, emotion, readability and tone",
		Long: `Analyze a text, markdown, HTML or PDF file. Reads stdin when FILE is
"-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			svc, _, err := o.newService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			report, err := svc.Analyze(cmd.Context(), text, o.contentType)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), o.format, report, reportText(report))
		},
	}
}

func newCompareCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compare A B",
		Short: "Score two versions side by side",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			textA, err := extract.ReadFile(args[0])
			if err != nil {
				return err
			}
			textB, err := extract.ReadFile(args[1])
			if err != nil {
				return err
			}

			svc, _, err := o.newService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			comparison, err := svc.Compare(cmd.Context(), textA, textB, o.contentType)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), o.format, comparison, comparisonText(comparison))
		},
	}
}

func newReadabilityCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "readability [FILE|-]",
		Short: "Report Flesch reading ease and prose statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			text = content.Sanitize(text)
			if !hasText(text) {
				return errNoInput
			}

			report := analyzer.AnalyzeReadability(text)
			return writeOutput(cmd.OutOrStdout(), o.format, report, readabilityText(report))
		},
	}
}

func newToneCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tone [FILE|-]",
		Short: "Report formality, confidence and voice",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			text = content.Sanitize(text)
			if !hasText(text) {
				return errNoInput
			}

			report := analyzer.AnalyzeTone(text)
			return writeOutput(cmd.OutOrStdout(), o.format, report, toneText(report))
		},
	}
}

func newRewriteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite [FILE|-]",
		Short: "Suggest three alternative hooks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			svc, _, err := o.newService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, err := svc.Rewrite(cmd.Context(), text, o.contentType)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), o.format, result, rewriteText(result))
		},
	}
}

func newFetchCmd(o *options) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Extract article text from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := o.newService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fetcher := extract.NewFetcher(cfg.FetchTimeout, o.logger(cmd.ErrOrStderr()))
			extracted, err := fetcher.FetchURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !analyze {
				return writeOutput(cmd.OutOrStdout(), o.format, extracted, extractedText(extracted))
			}

			report, err := svc.Analyze(cmd.Context(), extracted.Content, o.contentType)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", extracted.Source, err)
			}
			return writeOutput(cmd.OutOrStdout(), o.format, report, reportText(report))
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Score the extracted text instead of printing it")
	return cmd
}

