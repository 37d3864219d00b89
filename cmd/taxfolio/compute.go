package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/taxfolio/internal/config"
	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/internal/input"
	"github.com/ledgerloom/taxfolio/internal/report"
	"github.com/ledgerloom/taxfolio/internal/tax"
	"github.com/ledgerloom/taxfolio/internal/tax/method"
)

type computeOptions struct {
	configPath  string
	inputPath   string
	outputDir   string
	prefix      string
	asset       string
	fromYear    int
	toYear      int
	countryCode string
	methodName  string
	generator   string
	verbose     bool
}

func newComputeCommand() *cobra.Command {
	var opts computeOptions

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute gains/losses and balances from an input workbook",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCompute(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "portfolio configuration file (JSON)")
	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "input workbook (xlsx), one sheet per asset")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "report output directory (default from settings)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "output file prefix")
	cmd.Flags().StringVarP(&opts.asset, "asset", "a", "", "process only this asset")
	cmd.Flags().IntVar(&opts.fromYear, "from-year", 0, "first tax year to report (inclusive)")
	cmd.Flags().IntVar(&opts.toYear, "to-year", 0, "last tax year to report (inclusive)")
	cmd.Flags().StringVar(&opts.countryCode, "country", "us", "country plugin (ISO 3166 code)")
	cmd.Flags().StringVarP(&opts.methodName, "method", "m", "", "accounting method (default from country)")
	cmd.Flags().StringVarP(&opts.generator, "generator", "g", "", "report generator (default from country)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCompute(opts computeOptions) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	settings.InitLogging(opts.verbose)
	if opts.outputDir == "" {
		opts.outputDir = settings.Report.OutputDir
	}
	if opts.prefix == "" {
		opts.prefix = settings.Report.Prefix
	}

	c, err := country.Lookup(opts.countryCode)
	if err != nil {
		return err
	}
	cfg, err := config.LoadPortfolio(opts.configPath, c, opts.fromYear, opts.toYear, opts.methodName)
	if err != nil {
		return err
	}
	methods, err := method.ForYears(cfg.YearsToMethods)
	if err != nil {
		return err
	}

	workbook, err := input.OpenWorkbook(opts.inputPath)
	if err != nil {
		return err
	}
	defer workbook.Close()

	assets := cfg.Assets()
	if opts.asset != "" {
		if err := cfg.CheckAsset(opts.asset); err != nil {
			return err
		}
		assets = []string{opts.asset}
	}
	slices.Sort(assets)

	assetToComputedData := make(map[string]*tax.ComputedData, len(assets))
	for _, asset := range assets {
		slog.Info("processing asset", "asset", asset)

		data, err := input.ParseAsset(cfg, workbook, asset)
		if err != nil {
			return fmt.Errorf("%s: %w", asset, err)
		}
		engine, err := tax.NewAccountingEngine(methods)
		if err != nil {
			return err
		}
		computed, err := tax.ComputeTax(cfg, engine, data)
		if err != nil {
			return err
		}
		assetToComputedData[asset] = computed
	}

	generatorNames := c.DefaultReportGenerators()
	if opts.generator != "" {
		generatorNames = []string{opts.generator}
	}
	for _, name := range generatorNames {
		g, err := report.Lookup(name)
		if err != nil {
			return err
		}
		path, err := g.Generate(assetToComputedData, opts.outputDir, opts.prefix)
		if err != nil {
			return err
		}
		slog.Info("generated report", "generator", name, "path", path)
	}

	slog.Info("done", "assets", len(assetToComputedData), "output_dir", opts.outputDir)
	return nil
}
