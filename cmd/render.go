package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"chart-annotator/internal/dto"
	"chart-annotator/internal/service"

	"github.com/spf13/cobra"
)

var (
	renderAnalysisFiles []string
	renderImageFiles    []string
	renderOutFiles      []string
	renderTheme         string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Annotate chart images from local analysis and image files",
	Long: `Annotate one or more chart images without running the server.
Each --analysis/--image/--out triple is one render; multiple triples run concurrently.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringArrayVar(&renderAnalysisFiles, "analysis", nil, "path to a raw analysis JSON file (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderImageFiles, "image", nil, "path to a base chart image (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderOutFiles, "out", nil, "path to write the annotated PNG to (repeatable)")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "dark", "color theme: dark or light")
	renderCmd.MarkFlagRequired("analysis")
	renderCmd.MarkFlagRequired("image")
	renderCmd.MarkFlagRequired("out")
}

func runRender(cmd *cobra.Command, args []string) error {
	if len(renderAnalysisFiles) != len(renderImageFiles) || len(renderImageFiles) != len(renderOutFiles) {
		return fmt.Errorf("--analysis, --image and --out must be given the same number of times")
	}

	ctx := context.Background()

	appDep, err := NewAppDependencyOffline(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	annotator := service.NewAnnotateService(appDep.cfg, appDep.log, nil, appDep.cache, appDep.renderer)

	inputs := make([]service.BatchInput, 0, len(renderAnalysisFiles))
	for i := range renderAnalysisFiles {
		rawAnalysis, err := os.ReadFile(renderAnalysisFiles[i])
		if err != nil {
			return fmt.Errorf("failed to read analysis file %s: %w", renderAnalysisFiles[i], err)
		}
		image, err := os.ReadFile(renderImageFiles[i])
		if err != nil {
			return fmt.Errorf("failed to read image file %s: %w", renderImageFiles[i], err)
		}
		inputs = append(inputs, service.BatchInput{
			Name:        renderOutFiles[i],
			RawAnalysis: rawAnalysis,
			Image:       image,
			Theme:       dto.Theme(renderTheme),
		})
	}

	results, err := annotator.AnnotateBatch(ctx, inputs)
	if err != nil {
		return err
	}

	for i, result := range results {
		if err := os.WriteFile(renderOutFiles[i], result.Image, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", renderOutFiles[i], err)
		}
		fmt.Printf("%s: %d marks, story: %s\n", renderOutFiles[i], len(result.Plan.Marks), result.Plan.Story)
	}

	return nil
}
