package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/config"
	"bookforge-ai-api/internal/domain/entity"
	einoobs "bookforge-ai-api/internal/observability/eino"
	"bookforge-ai-api/internal/wire"
	"bookforge-ai-api/pkg/logger"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(logLevel, "text", "stderr")
	return cfg, nil
}

func generateCmd() *cobra.Command {
	var (
		profileName string
		format      string
		out         string
		userID      string
	)

	cmd := &cobra.Command{
		Use:   "generate [topic]",
		Short: "Generate a document for a topic and save it locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := book.LookupProfile(profileName)
			if !ok {
				return fmt.Errorf("unknown profile %q", profileName)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			einoobs.Init()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gen, cleanup, err := wire.InitializeGenerator(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize generator: %w", err)
			}
			defer cleanup()

			token := book.NewCancelToken()
			go func() {
				<-ctx.Done()
				token.Cancel()
			}()

			color.Cyan("Generating %s for %q (%d sections)", profile.Name, args[0], profile.SectionCount())
			res, err := gen.Generate(ctx, book.Request{
				UserID:  userID,
				Topic:   args[0],
				Profile: profile,
				Format:  entity.DocumentFormat(strings.ToLower(format)),
				Cancel:  token,
				Progress: func(done, total int) {
					color.Yellow("  section %d/%d done", done, total)
				},
			})
			if err != nil {
				color.Red("Generation failed: %v", err)
				return err
			}
			defer func() {
				if err := res.Release(); err != nil {
					color.Red("failed to remove workspace: %v", err)
				}
			}()

			target := out
			if target == "" {
				target = res.FileName
			}
			if err := saveResult(afero.NewOsFs(), res, target); err != nil {
				return err
			}
			color.Green("Saved %q to %s (%d words, %d bytes)", res.Title, target, res.Words, res.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", book.ProfileBookSmall, "Generation profile")
	cmd.Flags().StringVarP(&format, "format", "f", string(entity.DocumentFormatPDF), "Output format (pdf, docx)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (defaults to the generated file name)")
	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "User ID recorded for the job")

	return cmd
}

// saveResult 把工作目录里的输出文件复制到目标路径
func saveResult(fs afero.Fs, res *book.Result, target string) error {
	src, err := res.Open()
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer src.Close()

	if dir := filepath.Dir(target); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	dst, err := fs.Create(target)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return dst.Close()
}

func promptsCmd() *cobra.Command {
	var profileName string

	cmd := &cobra.Command{
		Use:   "prompts [topic]",
		Short: "Print the prompt sequence for a topic without calling the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := book.LookupProfile(profileName)
			if !ok {
				return fmt.Errorf("unknown profile %q", profileName)
			}
			prompts, err := book.BuildPrompts(cmd.Context(), args[0], profile)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range prompts {
				header := fmt.Sprintf("[%d] %s", p.Index, p.Kind)
				if p.Kind == book.PromptKindChapter {
					header = fmt.Sprintf("%s %d", header, p.Chapter)
				}
				if p.IncludeTOC {
					header += " (+toc)"
				}
				fmt.Fprintln(w, color.CyanString(header))
				fmt.Fprintln(w, p.Text)
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", book.ProfileBookSmall, "Generation profile")
	return cmd
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in generation profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, p := range book.Profiles() {
				fmt.Fprintf(w, "%s  %s chapters=%d sections=%d min_words=%d\n",
					color.GreenString("%-20s", p.Name), p.DocumentType,
					p.ChapterCount, p.SectionCount(), p.MinWordsPerChapter)
			}
		},
	}
}
