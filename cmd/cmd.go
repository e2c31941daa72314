// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/attnlens/attnlens/envconfig"
	"github.com/attnlens/attnlens/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-28s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "attnlens",
		Short:         "Attention pattern extraction server",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start attnlens",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}

	sampleCmd := &cobra.Command{
		Use:   "sample [MODEL...]",
		Short: "Pre-generate attention sample files for the frontend",
		RunE:  RunSample,
	}
	sampleCmd.Flags().String("text", DefaultSampleText, "Input text to analyze")
	sampleCmd.Flags().String("output", "", "Output directory (default: ATTNLENS_SAMPLES)")

	pullCmd := &cobra.Command{
		Use:   "pull MODEL [MODEL...]",
		Short: "Download model checkpoints from the HuggingFace Hub",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunPull,
	}

	envVars := envconfig.AsMap()
	for _, cmd := range []*cobra.Command{serveCmd, sampleCmd, pullCmd} {
		appendEnvDocs(cmd, []envconfig.EnvVar{
			envVars["ATTNLENS_DEBUG"],
			envVars["ATTNLENS_DETECT_HEADS"],
			envVars["ATTNLENS_HOST"],
			envVars["ATTNLENS_LOAD_TIMEOUT"],
			envVars["ATTNLENS_MODELS"],
			envVars["ATTNLENS_ORIGINS"],
			envVars["ATTNLENS_PROCESS_TIMEOUT"],
			envVars["ATTNLENS_SAMPLES"],
		})
	}

	rootCmd.AddCommand(
		serveCmd,
		sampleCmd,
		pullCmd,
	)

	return rootCmd
}
