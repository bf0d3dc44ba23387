package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"splitledger/internal/core"
	"splitledger/internal/gateway"
	"splitledger/internal/ledger"
	"splitledger/internal/log"
)

type transfer struct {
	From   int64   `json:"from"`
	To     int64   `json:"to"`
	Amount float64 `json:"amount"`
}

type report struct {
	Balances  map[string]map[string]float64 `json:"balances"`
	Positions map[string]float64            `json:"positions"`
	Transfers []transfer                    `json:"transfers"`
}

func main() {
	participationsFile := flag.String("participations", "", "Path to the participations CSV file (required)")
	settlementsFile := flag.String("settlements", "", "Path to the settlements CSV file (optional)")
	logLevel := flag.String("log-level", "warn", "Log level written to stderr")
	flag.Parse()

	if *participationsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -participations is required.")
		flag.Usage()
		os.Exit(1)
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    "text",
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})

	ctx := context.Background()
	reader := gateway.NewCSVRecordReader()

	parts, err := reader.ReadParticipations(ctx, *participationsFile)
	if err != nil {
		logger.Error("Failed to read participations", "error", err)
		os.Exit(1)
	}
	var settlements []core.Settlement
	if *settlementsFile != "" {
		settlements, err = reader.ReadSettlements(ctx, *settlementsFile)
		if err != nil {
			logger.Error("Failed to read settlements", "error", err)
			os.Exit(1)
		}
	}

	plan := ledger.Settle(parts, settlements)
	logger.Info("Ledger evaluated",
		"participations", len(parts),
		"settlements", len(settlements),
		log.FieldTransfers, len(plan.Transfers))

	output, err := json.MarshalIndent(newReport(plan), "", "  ")
	if err != nil {
		logger.Error("Failed to encode report", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func key(id core.UserID) string { return strconv.FormatInt(int64(id), 10) }

func newReport(plan ledger.Plan) report {
	r := report{
		Balances:  make(map[string]map[string]float64, len(plan.Balances)),
		Positions: make(map[string]float64, len(plan.Positions)),
		Transfers: make([]transfer, 0, len(plan.Transfers)),
	}
	for debtor, row := range plan.Balances {
		out := make(map[string]float64, len(row))
		for creditor, m := range row {
			out[key(creditor)] = m.Float()
		}
		r.Balances[key(debtor)] = out
	}
	for id, m := range plan.Positions {
		r.Positions[key(id)] = m.Float()
	}
	for _, t := range plan.Transfers {
		r.Transfers = append(r.Transfers, transfer{From: int64(t.From), To: int64(t.To), Amount: t.Amount.Float()})
	}
	return r
}
