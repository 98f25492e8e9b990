package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriPersona/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "roripersona",
	Short: "A persona chat agent that answers on your behalf",
	Long: `RoriPersona answers visitors in the voice of a configured persona.
Every reply is checked by a judge model and revised when it falls short.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChat()
	},
}

func runChat() {
	application, err := app.NewApplication()
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
