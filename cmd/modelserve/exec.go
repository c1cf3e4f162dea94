package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptmaster/modelserve/modelcore"
	"github.com/scriptmaster/modelserve/onnxengine"
)

var (
	execPrompt       string
	execSystemPrompt string
	execMaxNewTokens int
	execDoSample     bool
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Load the configured model, generate a single reply, and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		lm, err := loadAndRegister()
		if err != nil {
			return err
		}

		messages := []onnxengine.ChatMessage{}
		if execSystemPrompt != "" {
			messages = append(messages, onnxengine.ChatMessage{Role: onnxengine.RoleSystem, Content: execSystemPrompt})
		}
		messages = append(messages, onnxengine.ChatMessage{Role: onnxengine.RoleUser, Content: execPrompt})

		promptValue, err := lm.vocab.PromptValue(messages)
		if err != nil {
			return fmt.Errorf("build prompt: %w", err)
		}

		scheduler := modelcore.NewScheduler(lm.registry, lm.cfg.SchedulerVerifyInput)
		defer scheduler.Shutdown()

		input := modelcore.NewInput(promptValue, modelcore.Int(int64(execMaxNewTokens)), modelcore.Bool(execDoSample))
		result := scheduler.Enqueue(cmd.Context(), input, lm.id)
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

		// Decode's output is printed as is: generation stops at a stop
		// sequence but keeps it, so the text may end with that sequence.
		fmt.Println(text)
		return nil
	},
}

func init() {
	execCmd.Flags().StringVar(&execPrompt, "prompt", "Hello, who are you?", "user message to send")
	execCmd.Flags().StringVar(&execSystemPrompt, "system", "", "optional system message prepended to the chat")
	execCmd.Flags().IntVar(&execMaxNewTokens, "max-new-tokens", 64, "maximum number of tokens to generate")
	execCmd.Flags().BoolVar(&execDoSample, "do-sample", false, "sample from the output distribution instead of greedy decoding")
	rootCmd.AddCommand(execCmd)
}
