package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"psychinsights-backend/internal/models"
	"psychinsights-backend/internal/scope"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage classes",
}

var classCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a class",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassCreate,
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this device's classes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runClassList,
}

var classShowCmd = &cobra.Command{
	Use:   "show <class-id>",
	Short: "Show a class, its strategy and its students",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassShow,
}

var classDeleteCmd = &cobra.Command{
	Use:   "delete <class-id>",
	Short: "Delete a class and all of its students",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassDelete,
}

var classSynthesizeCmd = &cobra.Command{
	Use:   "synthesize <class-id>",
	Short: "Build a class strategy from the analysed students",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassSynthesize,
}

func init() {
	classCmd.AddCommand(classCreateCmd, classListCmd, classShowCmd, classDeleteCmd, classSynthesizeCmd)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func displayName(c *models.Class) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return scope.Strip(c.ClassName)
}

func runClassCreate(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	class, err := c.CreateClass(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created class %q (%s)\n", displayName(class), class.ID)
	return nil
}

func runClassList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	classes, err := c.ListClasses(cmd.Context())
	if err != nil {
		return err
	}
	classes = scope.FilterByScope(classes, func(cl *models.Class) string { return cl.ClassName }, c.Token())

	out := cmd.OutOrStdout()
	if len(classes) == 0 {
		fmt.Fprintln(out, "No classes yet.")
		return nil
	}
	for _, cl := range classes {
		fmt.Fprintf(out, "%s  %-30s  %d students\n", cl.ID, displayName(cl), cl.StudentCount)
	}
	return nil
}

func runClassShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	class, err := c.GetClass(cmd.Context(), id)
	if err != nil {
		return err
	}
	students, err := c.ListStudents(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", displayName(class))
	if class.ClassSummary != nil && *class.ClassSummary != "" {
		fmt.Fprintf(out, "Class strategy:\n%s\n\n", *class.ClassSummary)
	}
	if len(students) == 0 {
		fmt.Fprintln(out, "No students yet.")
		return nil
	}
	for _, s := range students {
		tag := "-"
		if s.AIPersonalityTag != nil && *s.AIPersonalityTag != "" {
			tag = *s.AIPersonalityTag
		}
		fmt.Fprintf(out, "%6d  %s  %s\n", s.StudentNumericID, s.ID, tag)
	}
	return nil
}

func runClassDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	if err := c.DeleteClass(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Class and all students deleted")
	return nil
}

func runClassSynthesize(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	class, err := c.GetClass(cmd.Context(), id)
	if err != nil {
		return err
	}
	summary, err := c.SynthesizeClass(cmd.Context(), class)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", summary)
	return nil
}
