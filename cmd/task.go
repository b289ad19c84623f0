package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/task"
	"github.com/josephgoksu/azubihub/internal/ui"
	"github.com/josephgoksu/azubihub/internal/util"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks", "t"},
	Short:   "Manage your tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		due, _ := cmd.Flags().GetString("due")
		c, err := parseCategoryFlag(category)
		if err != nil {
			return err
		}
		if c == "" {
			c = task.CategoryWorkplace
		}
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			t, err := sess.Tasks().Add(ctx, task.Draft{Text: strings.Join(args, " "), Category: c, DueDate: due})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StylePrefixDone.Render("✓"), t.Text, ui.StyleSubtle.Render(ui.TruncateID(t.ID)))
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		asJSON, _ := cmd.Flags().GetBool("json")
		c, err := parseCategoryFlag(category)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			tasks := sess.Tasks().List()
			if c != "" {
				tasks = sess.Tasks().Filter(c)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSubtle.Render("No tasks yet. Add one with `azubihub task add`."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.TaskTable(tasks, rt.lang).Render())
			return nil
		})
	},
}

func setDoneCommand(use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
				t, err := resolveTask(sess.Tasks(), args[0])
				if err != nil {
					return err
				}
				if t.Completed != done {
					if t, err = sess.Tasks().Toggle(ctx, t.ID); err != nil {
						return err
					}
				}
				mark := ui.StylePrefixOpen.Render("○")
				if t.Completed {
					mark = ui.StylePrefixDone.Render("✓")
				}
				p := sess.Progress()
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", mark, t.Text, ui.StyleSubtle.Render(fmt.Sprintf("Level %d · %d XP", p.Level, p.XP)))
				return nil
			})
		},
	}
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			t, err := resolveTask(sess.Tasks(), args[0])
			if err != nil {
				return err
			}
			if err := sess.Tasks().Delete(ctx, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", t.Text)
			return nil
		})
	},
}

var taskSuggestCmd = &cobra.Command{
	Use:   "suggest [context]",
	Short: "Let the mentor suggest tasks for your day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			tasks, err := sess.SuggestTasks(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StylePrefixMentor.Render("+"), t.Text, ui.StyleSubtle.Render(ui.TruncateID(t.ID)))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskRmCmd, taskSuggestCmd,
		setDoneCommand("done", "Mark a task as completed (+50 XP)", true),
		setDoneCommand("undo", "Mark a task as open again", false),
	)

	taskAddCmd.Flags().StringP("category", "k", "", "Betrieb, Berufsschule or Sonstiges (default Betrieb)")
	taskAddCmd.Flags().String("due", "", "due date YYYY-MM-DD")
	taskListCmd.Flags().StringP("category", "k", "", "only show this category")
	taskListCmd.Flags().Bool("json", false, "print JSON")
}

func parseCategoryFlag(s string) (task.Category, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return task.ParseCategory(s)
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(store *task.Store, idOrPrefix string) (task.Task, error) {
	tasks := store.List()
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	id, err := util.ResolveID(idOrPrefix, ids, "task")
	if errors.Is(err, util.ErrNotFound) {
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return task.Task{}, err
	}
	return store.Get(id)
}
