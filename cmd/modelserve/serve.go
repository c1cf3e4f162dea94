package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptmaster/modelserve/internal/obslog"
	"github.com/scriptmaster/modelserve/modelcore"
	"github.com/scriptmaster/modelserve/onnxengine"
)

// serveCmd is the end-to-end demo: load the configured model, register
// it behind a Scheduler, run one fixed chat exchange through it, print
// the reply, and shut the scheduler down cleanly.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configured model and run one demo chat exchange through a Scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		lm, err := loadAndRegister()
		if err != nil {
			return err
		}

		scheduler := modelcore.NewScheduler(lm.registry, lm.cfg.SchedulerVerifyInput)
		defer scheduler.Shutdown()

		messages := []onnxengine.ChatMessage{
			{Role: onnxengine.RoleSystem, Content: "You are a helpful assistant."},
			{Role: onnxengine.RoleUser, Content: "What is the third planet in our solar system?"},
		}
		promptValue, err := lm.vocab.PromptValue(messages)
		if err != nil {
			return fmt.Errorf("build prompt: %w", err)
		}

		input := modelcore.NewInput(promptValue, modelcore.Int(64), modelcore.Bool(false))
		result := scheduler.Enqueue(context.Background(), input, lm.id)
		if result.SchedulerErr != nil {
			return fmt.Errorf("schedule generation: %w", result.SchedulerErr)
		}
		if result.ExecutionErr != nil {
			return fmt.Errorf("generate: %w", result.ExecutionErr)
		}

		generatedIDs, err := onnxengine.ValueToTokenIDs(result.ExecutionResult.Result)
		if err != nil {
			return fmt.Errorf("decode generated token ids: %w", err)
		}
		text, err := lm.vocab.Decode(generatedIDs)
		if err != nil {
			return fmt.Errorf("decode generated text: %w", err)
		}

		obslog.Log.WithField("queue_depth", result.Stats.QueueDepth).Debug("generation dispatched")
		fmt.Println(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
