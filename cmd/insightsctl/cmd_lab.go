package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"psychinsights-backend/internal/models"
)

var (
	labL1       string
	labL2       string
	labCategory string
	labContent  string
	labFile     string
)

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Linguistic Lab tools",
}

var labInterferenceCmd = &cobra.Command{
	Use:   "interference",
	Short: "Map first-language transfer onto second-language content",
	Args:  cobra.NoArgs,
	RunE:  runLabInterference,
}

var labEtymologyCmd = &cobra.Command{
	Use:   "etymology <words...>",
	Short: "Find roots, cognates and word families",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLabEtymology,
}

var labCognitiveCmd = &cobra.Command{
	Use:   "cognitive [passage...]",
	Short: "Score the cognitive load of a text passage",
	RunE:  runLabCognitive,
}

var labStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the saved lab state as JSON",
	Args:  cobra.NoArgs,
	RunE:  runLabState,
}

func init() {
	labInterferenceCmd.Flags().StringVar(&labL1, "l1", "", "first language")
	labInterferenceCmd.Flags().StringVar(&labL2, "l2", "", "target language")
	labInterferenceCmd.Flags().StringVar(&labCategory, "category", "grammar", "task category")
	labInterferenceCmd.Flags().StringVar(&labContent, "content", "", "topic or text to analyse")
	labCognitiveCmd.Flags().StringVar(&labFile, "file", "", "read the passage from a file")

	labCmd.AddCommand(labInterferenceCmd, labEtymologyCmd, labCognitiveCmd, labStateCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runLabInterference(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.AnalyzeInterference(cmd.Context(), models.InterferenceRequest{
		L1:           labL1,
		L2:           labL2,
		TaskCategory: labCategory,
		ContentArea:  labContent,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bridges (%d)\n", len(result.Bridges))
	for _, b := range result.Bridges {
		fmt.Fprintf(out, "  %s → %s  [%s, %s]\n", b.L1Concept, b.L2Concept, b.Type, b.TransferType)
	}
	fmt.Fprintf(out, "Pitfalls (%d)\n", len(result.Pitfalls))
	for _, p := range result.Pitfalls {
		fmt.Fprintf(out, "  [%s] %s: %s\n", p.Severity, p.L2Error, p.Correction)
	}
	fmt.Fprintf(out, "False friends (%d)\n", len(result.FalseFriends))
	for _, f := range result.FalseFriends {
		fmt.Fprintf(out, "  %s / %s\n", f.L1Word, f.L2Word)
	}
	return nil
}

func runLabEtymology(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.AnalyzeEtymology(cmd.Context(), strings.Join(args, ", "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, conn := range result.Connections {
		fmt.Fprintf(out, "%s  ← %s (%s): %s\n", conn.Word, conn.Root, conn.RootLanguage, conn.Meaning)
	}
	for _, g := range result.RootGroups {
		fmt.Fprintf(out, "[%s] %s: %s\n", g.Root, g.Meaning, strings.Join(g.Words, ", "))
	}
	return nil
}

func runLabCognitive(cmd *cobra.Command, args []string) error {
	passage := strings.Join(args, " ")
	if labFile != "" {
		data, err := os.ReadFile(labFile)
		if err != nil {
			return fmt.Errorf("read passage: %w", err)
		}
		passage = string(data)
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.AnalyzeCognitiveLoad(cmd.Context(), passage)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Overall load: %.0f/100\n", result.OverallScore)
	for _, p := range result.LoadPoints {
		fmt.Fprintf(out, "  %-20s %3.0f  %s\n", p.Word, p.Load, p.Reason)
	}
	for _, a := range result.ScaffoldingAdvice {
		fmt.Fprintf(out, "• [%s] %s\n", a.Priority, a.Advice)
	}
	return nil
}

func runLabState(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := c.LabState(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, st)
}
