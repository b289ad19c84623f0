package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/ui"
)

var quizCmd = &cobra.Command{
	Use:   "quiz <topic>",
	Short: "Practice a topic with flashcards (+20 XP per correct answer)",
	Long: `Generate flashcards for a topic and go through them.

For each card think of the answer, press enter to reveal it and then answer
y if you knew it. q ends the quiz early.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			var cards []assistant.Flashcard
			var st assistant.QuizState
			run := func(ctx context.Context) error {
				var err error
				cards, st, err = sess.StartQuiz(ctx, topic)
				return err
			}
			var err error
			if isTerminal(cmd) {
				err = ui.RunWithSpinner(ctx, "Karteikarten werden erstellt…", run)
			} else {
				err = run(ctx)
			}
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSubtle.Render("No cards for this topic."))
				return nil
			}
			return runQuiz(ctx, cmd, sess, st)
		})
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(ctx context.Context, cmd *cobra.Command, sess *app.Session, st assistant.QuizState) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	read := func() (string, bool) {
		if !in.Scan() {
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(in.Text())), true
	}

	for st.Current != nil {
		card := st.Current
		fmt.Fprintf(out, "\n%s %s\n", ui.StyleHeader.Render(fmt.Sprintf("%d/%d", st.Index+1, st.Total)), card.Question)
		fmt.Fprint(out, ui.StyleSubtle.Render("[enter] Antwort zeigen "))
		answer, ok := read()
		if !ok || answer == "q" {
			break
		}
		fmt.Fprintln(out, ui.StyleAnswerBox.Render(card.Answer))
		fmt.Fprint(out, "Gewusst? [y/n/q] ")
		answer, ok = read()
		if !ok || answer == "q" {
			break
		}

		var err error
		st, err = sess.AnswerQuiz(ctx, answer == "y" || answer == "j")
		if err != nil {
			return err
		}
	}

	if !st.Finished {
		var err error
		if st, err = sess.FinishQuiz(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "\n%s %d/%d richtig\n", ui.StylePrefixDone.Render("✓"), st.Score, st.Total)
	if st.Progress != nil {
		fmt.Fprintln(out, ui.StyleSubtle.Render(fmt.Sprintf("Level %d · %d XP", st.Progress.Level, st.Progress.XP)))
	}
	return nil
}
