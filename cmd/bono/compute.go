package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/factory"
	"github.com/warp/bono-engine/session"
	"github.com/warp/bono-engine/sheet"
	"go.uber.org/zap"
)

func newComputeCmd(a *app) *cobra.Command {
	var (
		requestersPath string
		rosterPath     string
		planPath       string
		outPath        string
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute payouts from files and a plan document",
		Long: `Runs the whole bonus workflow offline: join the requester list with the
roster, apply the plan (process, lots and participation), print the payout
table and write the payout workbook.

Without lots in the plan, the [bonus] defaults from the config are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requesters, master, err := loadInputs(requestersPath, rosterPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(planPath)
			if err != nil {
				return err
			}
			plan, err := factory.ParsePlan(data)
			if err != nil {
				return fmt.Errorf("%s: %w", planPath, err)
			}

			s := session.New("cli", time.Now())
			res, err := s.LoadInputs(requesters, master)
			if err != nil {
				return err
			}
			if plan.Process == "" {
				plan.Process = string(a.cfg.DefaultProcess())
			}
			if len(plan.Lots) == 0 {
				lots, err := a.cfg.DefaultLots()
				if err != nil {
					return err
				}
				if err := s.Configure(bonus.ProcessType(plan.Process), lots); err != nil {
					return err
				}
			}
			applied, err := plan.Apply(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printStats(out, res.Stats)
			printPayouts(out, applied.Table)
			for _, id := range applied.UnmatchedDNIs {
				fmt.Fprintln(out, warnStyle.Render("DNI sin solicitante en el plan: "+string(id)))
			}

			if outPath == "" {
				outPath = a.cfg.ExportFileName()
			}
			t, err := s.MarkExported()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := sheet.WritePayouts(&buf, t, res.Stats); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return err
			}
			a.logger.Info("payout workbook written",
				zap.String("file", outPath),
				zap.String("grand_total", t.GrandTotal.StringFixed(2)),
			)
			fmt.Fprintln(out, "Archivo generado: "+outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestersPath, "requesters", "r", "", "requester list (.xlsx or .csv)")
	cmd.Flags().StringVarP(&rosterPath, "roster", "b", "", "master roster (.xlsx or .csv)")
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan document (.yaml or .json)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "payout workbook path (default from config)")
	cmd.MarkFlagRequired("requesters")
	cmd.MarkFlagRequired("roster")
	cmd.MarkFlagRequired("plan")
	return cmd
}
