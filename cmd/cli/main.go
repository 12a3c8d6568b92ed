package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shelflife/adapters/excel"
	"shelflife/app"
	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/config"
	"shelflife/internal/ich"
	"shelflife/internal/summary"
	"shelflife/internal/testkit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var conditionsFile string

	rootCmd := &cobra.Command{
		Use:           "shelflife",
		Short:         "Shelf-life estimation and ICH qualification for stability studies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&conditionsFile, "conditions", "", "YAML condition-category table layered over the defaults")

	loadConditions := func() (stability.ConditionTable, error) {
		return config.LoadConditions(conditionsFile)
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(loadConditions),
		newQualifyCmd(loadConditions),
		newExtrapolateCmd(),
		newConditionsCmd(loadConditions),
		newGenerateCmd(),
	)
	return rootCmd
}

type conditionLoader func() (stability.ConditionTable, error)

func newAnalyzeCmd(loadConditions conditionLoader) *cobra.Command {
	var (
		file       string
		specLimit  float64
		asJSON     bool
		asMarkdown bool
		xlsxOut    string
		workers    int
		criteria   = ich.DefaultCriteria()
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fit, solve and qualify every (condition, parameter) group in a workbook or CSV",
		Long: `Read stability observations from an xlsx (Sheet1) or csv file and report
one regression, shelf-life estimate and ICH verdict per group.

Example: shelflife analyze --file pulls.xlsx --spec-limit 95 --xlsx report.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("spec-limit") {
				return fmt.Errorf("--spec-limit is required")
			}
			conditions, err := loadConditions()
			if err != nil {
				return err
			}

			engine := analysis.NewEngine(conditions, analysis.WithWorkers(workers), analysis.WithCriteria(criteria))
			run, err := app.NewAnalysisService(engine, nil).AnalyzeFile(cmd.Context(), app.SourceCLI, file, specLimit)
			if err != nil {
				return err
			}

			if xlsxOut != "" {
				if err := writeWorkbook(xlsxOut, run); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", xlsxOut)
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			case asMarkdown:
				_, err := io.WriteString(out, summary.Batch(run.Reports))
				return err
			default:
				printReports(out, run)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the stability workbook (.xlsx) or .csv")
	cmd.Flags().Float64Var(&specLimit, "spec-limit", 0, "Specification limit the fitted line is solved against")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Print the regulatory summary as markdown")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Also export the run to this xlsx path")
	cmd.Flags().IntVar(&workers, "workers", 4, "Groups analyzed concurrently")
	cmd.Flags().IntVar(&criteria.MinTimepoints, "min-timepoints", criteria.MinTimepoints, "Minimum distinct timepoints")
	cmd.Flags().Float64Var(&criteria.MinRSquared, "min-r2", criteria.MinRSquared, "Minimum R²")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func newQualifyCmd(loadConditions conditionLoader) *cobra.Command {
	var (
		n         int
		rSquared  float64
		condition string
		criteria  = ich.DefaultCriteria()
	)

	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Classify a single (timepoints, R², condition) triple",
		Long:  "Example: shelflife qualify --n 3 --r2 0.97 --condition 40C_75RH",
		RunE: func(cmd *cobra.Command, args []string) error {
			conditions, err := loadConditions()
			if err != nil {
				return err
			}
			verdict, err := ich.NewQualifier(conditions, criteria).Qualify(n, rSquared, condition)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n%s\n", verdict.Verdict, verdict.Category.Label(), verdict.Rationale)
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", 0, "Number of distinct timepoints")
	cmd.Flags().Float64Var(&rSquared, "r2", 0, "Coefficient of determination of the fit")
	cmd.Flags().StringVar(&condition, "condition", "", "Storage condition identifier")
	cmd.Flags().IntVar(&criteria.MinTimepoints, "min-timepoints", criteria.MinTimepoints, "Minimum distinct timepoints")
	cmd.Flags().Float64Var(&criteria.MinRSquared, "min-r2", criteria.MinRSquared, "Minimum R²")
	_ = cmd.MarkFlagRequired("condition")

	return cmd
}

func newExtrapolateCmd() *cobra.Command {
	var in ich.ExtrapolationInput

	cmd := &cobra.Command{
		Use:   "extrapolate",
		Short: "Propose an ICH Q1E extrapolated shelf-life from base period X",
		Long:  "Example: shelflife extrapolate --base 12 --stats --support",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.BaseMonths < 0 {
				return fmt.Errorf("--base must be >= 0")
			}
			d := ich.ProposeExtrapolation(in)
			fmt.Fprintf(cmd.OutOrStdout(), "X = %gM, Y = %gM: %s\n", d.BaseMonths, d.ProposedMonths, d.Decision)
			if d.Notes != "" {
				fmt.Fprintln(cmd.OutOrStdout(), d.Notes)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&in.BaseMonths, "base", 0, "Base period X in months (longest long-term timepoint)")
	cmd.Flags().BoolVar(&in.SignificantChangeAccelerated, "sig-acc", false, "Significant change at the accelerated condition")
	cmd.Flags().BoolVar(&in.SignificantChangeIntermediate, "sig-int", false, "Significant change at the intermediate condition")
	cmd.Flags().BoolVar(&in.Refrigerated, "refrigerated", false, "Product is stored refrigerated")
	cmd.Flags().BoolVar(&in.StatisticsSupported, "stats", false, "Regression meets the fit-quality threshold")
	cmd.Flags().BoolVar(&in.SupportingDataAvailable, "support", false, "Relevant supporting data is available")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}

func newConditionsCmd(loadConditions conditionLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "List the condition-category table in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			conditions, err := loadConditions()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONDITION\tCATEGORY")
			for _, name := range conditions.Conditions() {
				fmt.Fprintf(w, "%s\t%s\n", name, conditions[name].Label())
			}
			return w.Flush()
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		out    string
		seed   int64
		noise  float64
		format string
	)
	cfg := testkit.DefaultStabilityConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic stability study for demos and fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Seed = seed
			cfg.Noise = noise
			observations := testkit.NewStabilityDataGenerator(cfg).Generate()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if format == "csv" || excel.FileType(out) == "csv" {
				err = writeCSV(f, observations)
			} else {
				err = excel.WriteObservations(f, observations)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d observations to %s\n", len(observations), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "stability.xlsx", "Output path")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Seed, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&noise, "noise", cfg.Noise, "Std dev of measurement noise")
	cmd.Flags().StringVar(&format, "format", "", "Force csv output regardless of extension")

	return cmd
}

func writeWorkbook(path string, run *stability.AnalysisRun) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := excel.ExportRun(f, *run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, observations []stability.Observation) error {
	if _, err := fmt.Fprintln(w, "time,condition,parameter,value"); err != nil {
		return err
	}
	for _, obs := range observations {
		if _, err := fmt.Fprintf(w, "%g,%s,%s,%g\n", obs.Time, obs.Condition, obs.Parameter, obs.Value); err != nil {
			return err
		}
	}
	return nil
}

func printReports(out io.Writer, run *stability.AnalysisRun) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONDITION\tPARAMETER\tN\tSLOPE\tR²\tSHELF-LIFE\tVERDICT\tFAILURES")
	for _, r := range run.Reports {
		slope, r2, months, verdict := "-", "-", "-", "-"
		if r.Regression != nil {
			slope = fmt.Sprintf("%.4f", r.Regression.Slope)
			r2 = fmt.Sprintf("%.4f", r.Regression.RSquared)
		}
		if r.ShelfLife != nil {
			months = fmt.Sprintf("%.1f", r.ShelfLife.Months)
			if r.ShelfLife.Expired {
				months += " (expired)"
			}
		}
		if r.Qualification != nil {
			verdict = string(r.Qualification.Verdict)
		}
		kinds := make([]string, 0, len(r.Failures))
		for _, f := range r.Failures {
			kinds = append(kinds, string(f.Kind))
		}
		sort.Strings(kinds)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%v\n",
			r.Condition, r.Parameter, r.Summary.Timepoints, slope, r2, months, verdict, kinds)
	}
	w.Flush()

	if len(run.RowIssues) > 0 {
		fmt.Fprintf(out, "\n%d row(s) skipped:\n", len(run.RowIssues))
		for _, issue := range run.RowIssues {
			fmt.Fprintf(out, "  row %d: %s\n", issue.Row, issue.Reason)
		}
	}
}
