package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/ui"
	"github.com/josephgoksu/azubihub/internal/util"
)

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"file", "docs"},
	Short:   "Keep training documents next to your tasks",
}

var filesAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Upload documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			for _, path := range args {
				u, err := readUpload(path)
				if err != nil {
					return err
				}
				f, err := sess.UploadFile(ctx, u)
				if err != nil {
					return fmt.Errorf("%s: %w", u.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StylePrefixDone.Render("✓"), f.Name, ui.StyleSubtle.Render(ui.TruncateID(f.ID)))
			}
			return nil
		})
	},
}

var filesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List uploaded documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			files, err := sess.Files(ctx)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSubtle.Render("No documents yet."))
				return nil
			}
			t := &ui.Table{Headers: []string{"ID", "Name", "Type", "Size", "Uploaded"}, MaxWidth: 50}
			for _, f := range files {
				t.Rows = append(t.Rows, []string{
					ui.TruncateID(f.ID), f.Name, f.Type, humanSize(f.Size), f.UploadDate.Local().Format("02.01.2006 15:04"),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), t.Render())
			return nil
		})
	},
}

var filesRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			files, err := sess.Files(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(files))
			for _, f := range files {
				ids = append(ids, f.ID)
			}
			id, err := util.ResolveID(args[0], ids, "file")
			if errors.Is(err, util.ErrNotFound) {
				return fmt.Errorf("%w: %s", app.ErrFileNotFound, args[0])
			}
			if err != nil {
				return err
			}
			if err := sess.DeleteFile(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesAddCmd, filesListCmd, filesRmCmd)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + " KB"
	}
	return strconv.FormatInt(n, 10) + " B"
}
