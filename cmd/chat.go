package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/logger"
	"github.com/josephgoksu/azubihub/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:     "chat [message]",
	Aliases: []string{"ask", "mentor"},
	Short:   "Ask the AI mentor",
	Long: `Ask the AI mentor about work, school or your exam.

With a message the answer is printed and the command exits. Without one an
interactive conversation starts; an empty line or "exit" ends it and ctrl+c
stops the current answer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		langFlag, _ := cmd.Flags().GetString("lang")
		return withSession(cmd, func(ctx context.Context, rt *runtime, sess *app.Session) error {
			lang := rt.lang
			if langFlag != "" {
				lang = i18n.Parse(langFlag)
			}
			chat, err := sess.Chat(lang)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return ask(ctx, cmd, chat, strings.Join(args, " "))
			}
			return chatLoop(ctx, cmd, chat)
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("lang", "", "answer language, de or en (default from config)")
}

func chatLoop(ctx context.Context, cmd *cobra.Command, chat *assistant.Chat) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	for {
		fmt.Fprint(out, ui.StylePrefixUser.Render("Du › "))
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" || line == "exit" || line == "quit" {
			return nil
		}
		if err := ask(ctx, cmd, chat, line); err != nil {
			return err
		}
	}
}

// ask sends one message. Terminals get the answer rendered as Markdown once
// it is complete; pipes get the chunks as they arrive.
func ask(ctx context.Context, cmd *cobra.Command, chat *assistant.Chat, message string) error {
	logger.SetLastInput(message)
	out := cmd.OutOrStdout()
	tty := isTerminal(cmd)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var onChunk func(string)
	if !tty {
		onChunk = func(s string) { _, _ = io.WriteString(out, s) }
	}
	reply, err := chat.Send(ctx, message, onChunk)
	if err != nil {
		return err
	}
	stopOnCancel := context.AfterFunc(ctx, reply.Stop)
	defer stopOnCancel()

	var text string
	if tty {
		err = ui.RunWithSpinner(ctx, "Mentor denkt nach…", func(ctx context.Context) error {
			defer context.AfterFunc(ctx, reply.Stop)()
			var werr error
			text, werr = reply.Wait()
			return werr
		})
	} else {
		text, err = reply.Wait()
	}
	if err != nil {
		return err
	}

	if tty {
		fmt.Fprintln(out, ui.StylePrefixMentor.Render("Mentor"))
		fmt.Fprintln(out, ui.RenderMarkdown(text))
	} else {
		fmt.Fprintln(out)
	}
	if reply.Stopped() {
		fmt.Fprintln(out, ui.StyleSubtle.Render("(stopped)"))
	}
	return nil
}
