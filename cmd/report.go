package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/logger"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"bericht"},
	Short:   "Write and fill the weekly training report",
}

var reportPeriodCmd = &cobra.Command{
	Use:   "period",
	Short: "Show the reporting week and the tasks that count for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := periodFlag(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			sel := report.Select(sess.Tasks().List(), p)
			out := cmd.OutOrStdout()
			status := ui.StylePrefixOpen.Render("offen")
			if sess.Ledger().IsReportDone(p.ID) {
				status = ui.StylePrefixDone.Render("erledigt")
			}
			fmt.Fprintf(out, "%s %s (%s)\n", ui.StyleHeader.Render(fmt.Sprintf("KW %d", p.Week)), p.DateRange(), status)
			fmt.Fprintf(out, " %d Betrieb · %d Berufsschule\n", len(sel.Workplace), len(sel.School))
			for _, t := range sel.Workplace {
				fmt.Fprintf(out, "  • %s\n", t.Text)
			}
			for _, t := range sel.School {
				fmt.Fprintf(out, "  • %s\n", ui.StyleSchool.Render(t.Text))
			}
			return nil
		})
	},
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Let the AI write the report from the week's completed tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			res, err := generate(ctx, cmd, rt, sess)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderReport(res.Content, res.Period, rt.lang, terminalWidth(cmd)))
			if outPath != "" {
				if err := writeJSONFile(outPath, res.Content); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", ui.StylePrefixDone.Render("✓"), outPath)
			}
			return nil
		})
	},
}

var reportRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fill your PDF template with the report",
	Long: `Fill the first page of your school's PDF template with the report.

The report is read from --report (as written by 'report generate --out'),
otherwise it is generated first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		templatePath, _ := cmd.Flags().GetString("template")
		reportPath, _ := cmd.Flags().GetString("report")
		outPath, _ := cmd.Flags().GetString("out")

		template, err := readUpload(templatePath)
		if err != nil {
			return err
		}
		var content *report.Content
		if reportPath != "" {
			content = &report.Content{}
			if err := readJSONFile(reportPath, content); err != nil {
				return err
			}
		}

		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			p, err := periodFlag(cmd)
			if err != nil {
				return err
			}
			if content == nil {
				res, err := generate(ctx, cmd, rt, sess)
				if err != nil {
					return err
				}
				content, p = &res.Content, res.Period
			}

			doc, err := sess.RenderReport(ctx, template, content, p.Week)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = doc.Name
			}
			if err := afero.WriteFile(appFs, outPath, doc.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.StylePrefixDone.Render("✓"), outPath)
			return nil
		})
	},
}

var reportDoneCmd = &cobra.Command{
	Use:   "done",
	Short: "Mark the week's report as handed in, or open again (+100 XP once)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := periodFlag(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			done, snap, err := sess.ToggleReport(ctx, p.ID)
			if err != nil {
				return err
			}
			mark, state := ui.StylePrefixOpen.Render("○"), "offen"
			if done {
				mark, state = ui.StylePrefixDone.Render("✓"), "erledigt"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s KW %d %s  %s\n", mark, p.Week, state, ui.StyleSubtle.Render(fmt.Sprintf("%d XP", snap.XP)))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPeriodCmd, reportGenerateCmd, reportRenderCmd, reportDoneCmd)

	reportCmd.PersistentFlags().StringP("date", "d", "", "any day of the week, YYYY-MM-DD (default today)")
	for _, c := range []*cobra.Command{reportGenerateCmd, reportRenderCmd} {
		c.Flags().StringP("style", "s", "Formal", "Formal, Concise or Detailed")
		c.Flags().StringP("number", "n", "", "running report number (Nr.)")
	}
	reportGenerateCmd.Flags().StringP("out", "o", "", "save the report as JSON")
	reportRenderCmd.Flags().StringP("template", "t", "", "PDF template (required)")
	reportRenderCmd.Flags().StringP("report", "r", "", "report JSON from 'report generate --out'")
	reportRenderCmd.Flags().StringP("out", "o", "", "output file (default Berichtsheft_KW{week}.pdf)")
	_ = reportRenderCmd.MarkFlagRequired("template")
}

func periodFlag(cmd *cobra.Command) (report.Period, error) {
	date, _ := cmd.Flags().GetString("date")
	anchor := now()
	if strings.TrimSpace(date) != "" {
		d, err := report.ParseDate(date, anchor.Location())
		if err != nil {
			return report.Period{}, err
		}
		anchor = d
	}
	return report.PeriodFor(anchor), nil
}

// generate runs the report generation, behind a spinner on terminals.
func generate(ctx context.Context, cmd *cobra.Command, rt *runtime, sess *app.Session) (report.Result, error) {
	p, err := periodFlag(cmd)
	if err != nil {
		return report.Result{}, err
	}
	styleName, _ := cmd.Flags().GetString("style")
	style, err := report.ParseStyle(styleName)
	if err != nil {
		return report.Result{}, err
	}
	number, _ := cmd.Flags().GetString("number")
	req := report.Request{Anchor: p.Start, Style: style, Number: number, Lang: rt.lang}
	logger.SetLastInput(fmt.Sprintf("report generate %s %s", p.ID, style))

	var res report.Result
	run := func(ctx context.Context) error {
		var err error
		res, err = sess.GenerateReport(ctx, req)
		return err
	}
	if !isTerminal(cmd) {
		return res, run(ctx)
	}
	err = ui.RunWithSpinner(ctx, fmt.Sprintf("Bericht KW %d wird geschrieben…", p.Week), run)
	return res, err
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(cmd *cobra.Command) int {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return min(w, 100)
		}
	}
	return 80
}

func readUpload(path string) (app.Upload, error) {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return app.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return app.Upload{Name: filepath.Base(path), Data: data}, nil
}

func readJSONFile(path string, v any) error {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(appFs, path, append(data, '\n'), 0o644)
}
