package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"psychinsights-backend/internal/client"
	"psychinsights-backend/internal/models"
)

var analyzeNotes string

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage students and their analysis",
}

var studentAddCmd = &cobra.Command{
	Use:   "add <class-id> <student-number>",
	Short: "Add a student to a class by numeric id",
	Args:  cobra.ExactArgs(2),
	RunE:  runStudentAdd,
}

var studentShowCmd = &cobra.Command{
	Use:   "show <student-id>",
	Short: "Show notes and AI profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentShow,
}

var studentNotesCmd = &cobra.Command{
	Use:   "notes <student-id> <notes...>",
	Short: "Save observation notes",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStudentNotes,
}

var studentAnalyzeCmd = &cobra.Command{
	Use:   "analyze <student-id>",
	Short: "Produce an AI profile from the student's notes",
	Long: `Analyze sends the saved observation notes to the AI service and stores
the resulting personality tag, portrait and recommendations.

With --notes the given text is saved first and analysed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runStudentAnalyze,
}

var studentDeleteCmd = &cobra.Command{
	Use:   "delete <student-id>",
	Short: "Delete a student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentDelete,
}

func init() {
	studentAnalyzeCmd.Flags().StringVar(&analyzeNotes, "notes", "", "notes to save and analyse")
	studentCmd.AddCommand(studentAddCmd, studentShowCmd, studentNotesCmd, studentAnalyzeCmd, studentDeleteCmd)
}

func runStudentAdd(cmd *cobra.Command, args []string) error {
	classID, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := c.AddStudent(cmd.Context(), classID, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added student %d (%s)\n", st.StudentNumericID, st.ID)
	return nil
}

func runStudentShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := c.GetStudent(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Student %d", st.StudentNumericID)
	if st.AIPersonalityTag != nil && *st.AIPersonalityTag != "" {
		fmt.Fprintf(out, "  [%s]", *st.AIPersonalityTag)
	}
	fmt.Fprintln(out)

	if st.RawNotes != nil && *st.RawNotes != "" {
		fmt.Fprintf(out, "\nObservation notes:\n%s\n", *st.RawNotes)
	}
	if st.AIFullPortrait != nil && *st.AIFullPortrait != "" {
		fmt.Fprintf(out, "\nPortrait:\n%s\n", *st.AIFullPortrait)
	}
	if st.AIDosDonts != nil && *st.AIDosDonts != "" {
		printDosDonts(cmd, client.ParseDosDonts(*st.AIDosDonts))
	}
	return nil
}

func printDosDonts(cmd *cobra.Command, d client.DosDonts) {
	out := cmd.OutOrStdout()
	if !d.Structured {
		fmt.Fprintf(out, "\nRecommendations:\n%s\n", d.Raw)
		return
	}
	if len(d.Dos) > 0 {
		fmt.Fprintln(out, "\nDO:")
		for _, item := range d.Dos {
			fmt.Fprintf(out, "  ✓ %s\n", item)
		}
	}
	if len(d.Donts) > 0 {
		fmt.Fprintln(out, "\nDON'T:")
		for _, item := range d.Donts {
			fmt.Fprintf(out, "  ✗ %s\n", item)
		}
	}
}

func runStudentNotes(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	if err := c.UpdateNotes(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Notes saved")
	return nil
}

func runStudentAnalyze(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	st, err := c.GetStudent(cmd.Context(), id)
	if err != nil {
		return err
	}

	notes := analyzeNotes
	if notes == "" && st.RawNotes != nil {
		notes = *st.RawNotes
	}

	result, err := c.AnalyzeStudent(cmd.Context(), st, notes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Analysis complete  [%s]\n\n%s\n", result.PersonalityTag, result.FullPortrait)

	printDosDonts(cmd, client.ParseDosDonts(models.DosDontsText(result.DosDonts)))
	return nil
}

func runStudentDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	if err := c.DeleteStudent(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Student deleted")
	return nil
}
