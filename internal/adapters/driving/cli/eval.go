package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultscout/vaultscout/internal/eval"
)

var evalK int

var evalCmd = &cobra.Command{
	Use:   "eval [queryset.yaml]",
	Short: "Benchmark retrieval quality",
	Long: `Runs a golden query set against the index and reports Precision@K,
MRR, and NDCG. The query set is a YAML list of cases:

  - query: gradient descent
    relevant:
      - ml/optimisation.md
    mode: hybrid
    rerank: true`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().IntVarP(&evalK, "k", "k", eval.DefaultK, "ranking depth for metrics")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	cases, err := eval.LoadCases(args[0])
	if err != nil {
		return err
	}

	runner := eval.NewRunner(searchService, evalK)
	report, err := runner.Run(cmd.Context(), cases)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	cmd.Printf("Evaluated %d queries at k=%d\n\n", report.Cases, report.K)
	for _, qr := range report.PerQuery {
		cmd.Printf("  %-40s p@%d=%.2f  rr=%.2f  ndcg=%.2f\n",
			qr.Query, report.K, qr.Precision, qr.RR, qr.NDCG)
	}
	cmd.Println()
	cmd.Printf("Precision@%d: %.3f\n", report.K, report.Precision)
	cmd.Printf("Recall@%d:    %.3f\n", report.K, report.Recall)
	cmd.Printf("MRR:          %.3f\n", report.MRR)
	cmd.Printf("NDCG@%d:      %.3f\n", report.K, report.NDCG)
	return nil
}
