package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

func newImportCmd(envFile *string) *cobra.Command {
	var (
		file    string
		adminID uint
	)

	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Load a JSON or YAML question document into the bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles(*envFile)...)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := newLogger(cfg)

			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			infra, cleanup, err := connectInfrastructure(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			repo := repository.NewQuestionRepository(infra.DB)
			pool := service.NewQuestionPool(repo, infra.Redis, cfg.QuestionPoolTTL, logger)
			questions := service.NewQuestionService(repo, pool, utils.NewValidator(), logger)

			actor := service.Actor{ID: adminID, Role: models.RoleAdmin}
			result, err := questions.Import(cmd.Context(), actor, filepath.Base(file), content)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions from %s\n", result.Inserted, file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the question document")
	cmd.Flags().UintVar(&adminID, "admin-id", 0, "id of the admin recorded as author")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("admin-id")
	return cmd
}
