package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/ui"
)

var progressCmd = &cobra.Command{
	Use:     "progress",
	Aliases: []string{"xp", "level"},
	Short:   "Show your level and experience points",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderProgress(sess.Progress(), rt.lang, 30))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
