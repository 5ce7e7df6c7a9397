package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <state.json> <player> <dice>",
		Short: "Resolve one dice roll against a saved state and print the rule log",
		Args:  cobra.ExactArgs(3),
		RunE:  runSimulate,
	}
	cmd.Flags().Int("max-chain", 10, "rule chain iteration cap")
	cmd.Flags().Bool("json", false, "print the resulting state as JSON")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode state %s: %w", args[0], err)
	}
	dice, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("dice must be an integer: %w", err)
	}
	maxChain, _ := cmd.Flags().GetInt("max-chain")
	asJSON, _ := cmd.Flags().GetBool("json")

	resolver := engine.NewResolver(engine.WithMaxChainIterations(maxChain))
	next, logs := resolver.ResolveDiceRoll(state, args[1], dice)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Logs  []engine.RuleLog `json:"logs"`
			State game.State       `json:"state"`
		}{logs, next})
	}
	for _, l := range logs {
		fmt.Fprintln(out, l.String())
	}
	if p, ok := next.Player(args[1]); ok {
		fmt.Fprintf(out, "%s ends on tile %d with score %d\n", p.ID, p.Position, p.Score)
	}
	return nil
}
