// Package main 命令行生成工具，不依赖 HTTP 服务、数据库与 Redis
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "bookgen",
		Short: "Generate books and research papers from a topic",
		Long: `bookgen drives the same section-by-section pipeline as the API server,
writing the rendered PDF or DOCX to a local file.

Profiles:
  book_small, book_medium, book_long, research_paper, research_paper_long`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Config directory (defaults to ./configs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(promptsCmd())
	rootCmd.AddCommand(profilesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
