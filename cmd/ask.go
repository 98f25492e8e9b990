package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriPersona/internal/app"
	"github.com/Rorical/RoriPersona/internal/config"
	"github.com/Rorical/RoriPersona/internal/logging"
)

var askVerbose bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the persona a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := strings.Join(args, " ")

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		level := cfg.Log.Level
		if !askVerbose {
			level = "warn"
		}
		logger, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format}, os.Stderr)
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}

		agent, err := app.BuildAgent(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to build agent: %v", err)
		}
		defer agent.Close()

		if agent.NotReady != nil {
			log.Fatalf("Agent not ready: %v", agent.NotReady)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, _ = logging.WithTurn(ctx, logger)

		reply, err := agent.Reviser.Run(ctx, question, nil, cfg.Agent.MaxAttempts)
		if err != nil {
			agent.Close()
			log.Fatalf("Turn failed: %v", err)
		}

		fmt.Println(reply.Text)
		if askVerbose {
			fmt.Fprintf(os.Stderr, "\n%s after %d attempt(s), %d evaluation(s), %d tool round(s)\n",
				reply.Acceptance, reply.Attempts, reply.Evaluations, reply.Turn.ToolRounds)
			for i, v := range reply.Verdicts {
				fmt.Fprintf(os.Stderr, "  verdict %d: acceptable=%t %s\n", i+1, v.IsAcceptable, v.Feedback)
			}
		}
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "print the judge's verdicts and turn statistics")
	rootCmd.AddCommand(askCmd)
}
