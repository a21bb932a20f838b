package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"fundguard/internal/amount"
	"fundguard/internal/app"
	"fundguard/internal/engine"
	"fundguard/internal/reserve"

	"github.com/spf13/cobra"
)

var (
	checkJSON     bool
	checkSnapshot string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Один проход проверки. Код выхода 1, если отправка заблокирована",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if checkSnapshot != "" {
			cfg.Snapshot.File = checkSnapshot
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		a, err := app.Build(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Check(ctx)
		if err != nil {
			return err
		}

		if checkJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(cmd.OutOrStdout(), report)
		}

		if report.Blocking() {
			return exitCode(1)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "вывести отчёт в JSON")
	checkCmd.Flags().StringVar(&checkSnapshot, "snapshot", "", "файл снапшота, перекрывает snapshot.file")
	rootCmd.AddCommand(checkCmd)
}

func printReport(w io.Writer, r *engine.Report) {
	fmt.Fprintf(w, "Проход %s, снапшот v%d\n", r.PassID, r.SnapshotVersion)
	for _, v := range r.Verdicts {
		fmt.Fprintf(w, "%-6s %s ордеров=%d черновиков=%d нужно_native=%s баланс_native=%s",
			status(v), v.Scope, v.Ledger.ActiveOrderCount, v.Draft.DraftCount,
			amount.Format(v.RequiredNative, v.NativeToken.Decimals), amount.Format(v.NativeBalance, v.NativeToken.Decimals))
		if !v.Scope.Native() {
			fmt.Fprintf(w, " нужно_токен=%s баланс_токен=%s",
				amount.Format(v.RequiredToken, v.Token.Decimals), amount.Format(v.TokenBalance, v.Token.Decimals))
		}
		fmt.Fprintln(w)
	}
	for _, msg := range r.Messages() {
		fmt.Fprintln(w, "  "+msg)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, "  предупреждение: "+warn)
	}
}

func status(v reserve.Verdict) string {
	switch {
	case v.Degraded:
		return "DEGR"
	case !v.Sufficient():
		return "SHORT"
	default:
		return "OK"
	}
}
