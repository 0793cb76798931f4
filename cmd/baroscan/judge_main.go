package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/metrics"
	"github.com/marketskies/baroscan/internal/scan"
)

func newJudgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "judge <ticker>",
		Short: "Diagnose the current barometer state of one ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  runJudge,
	}
	cmd.Flags().String("model", "conservative", "Model preset to apply")
	cmd.Flags().String("lookback", "2y", "History range to fetch")
	return cmd
}

func runJudge(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])
	modelName, _ := cmd.Flags().GetString("model")
	lookback, _ := cmd.Flags().GetString("lookback")

	model, err := resolveModel(cmd, modelName)
	if err != nil {
		return err
	}

	reg := metrics.Nop()
	scanner := scan.New(buildProvider(cmd, reg), reg)

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	snap, err := scanner.Analyze(ctx, ticker, lookback, model)
	if err != nil {
		return fmt.Errorf("judge %s: %w", ticker, err)
	}

	line := strings.Repeat("=", 40)
	fmt.Println(line)
	fmt.Printf("As of:        %s\n", snap.Date.Format("2006-01-02"))
	fmt.Printf("Close:        %.2f\n", snap.Close)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Barometer:    %s\n", snap.StateLabel)
	fmt.Printf("Recovery:     %s\n", snap.SignalLabel)
	fmt.Println(line)
	fmt.Printf("\nAdvice: %s\n", snap.Recommendation.Verbal())
	return nil
}
