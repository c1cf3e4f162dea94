package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Load the configured model and register it, printing its assigned ModelId",
	RunE: func(cmd *cobra.Command, args []string) error {
		lm, err := loadAndRegister()
		if err != nil {
			return err
		}
		fmt.Println(lm.id.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
