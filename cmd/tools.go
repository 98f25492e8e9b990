package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriPersona/internal/app"
	"github.com/Rorical/RoriPersona/internal/config"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the persona can call",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		agent, err := app.BuildAgent(cfg, zerolog.Nop())
		if err != nil {
			log.Fatalf("Failed to build agent: %v", err)
		}
		defer agent.Close()

		for _, def := range agent.Registry.Definitions() {
			fmt.Printf("%s\n  %s\n", def.Name, def.Description)

			var params bytes.Buffer
			if err := json.Indent(&params, def.Parameters, "  ", "  "); err != nil {
				params.Reset()
				params.Write(def.Parameters)
			}
			fmt.Printf("  %s\n\n", params.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
