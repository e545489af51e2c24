package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personabench/lmeval/config"
	"github.com/personabench/lmeval/eval"
	"github.com/personabench/lmeval/providers"
	"github.com/personabench/lmeval/utils"
)

var (
	experimentsPath string
	datasetPath     string
)

var rootCmd = &cobra.Command{
	Use:   "lmeval",
	Short: "Collect Likert ratings for portrait outputs from LLM providers",
}

var runCmd = &cobra.Command{
	Use:   "run [experiment]",
	Short: "Run one named experiment, or all experiments in the file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		experiments, err := config.LoadExperiments(experimentsPath)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			exp, err := config.FindExperiment(experiments, args[0])
			if err != nil {
				return err
			}
			experiments = []config.Experiment{exp}
		}

		data, err := eval.LoadDataset(datasetPath)
		if err != nil {
			return err
		}

		registry := providers.NewRegistry()

		for _, exp := range experiments {
			logger, err := utils.NewFileLogger(cfg.LogLevel, cfg.LogDir, exp.Name)
			if err != nil {
				return err
			}
			runner := eval.NewRunner(cfg, registry, logger)
			err = runner.RunExperiment(cmd.Context(), exp, data)
			logger.Close()
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the experiments declared in the experiments file",
	RunE: func(cmd *cobra.Command, args []string) error {
		experiments, err := config.LoadExperiments(experimentsPath)
		if err != nil {
			return err
		}
		for _, exp := range experiments {
			if exp.Description != "" {
				fmt.Printf("%s\t%s\n", exp.Name, exp.Description)
			} else {
				fmt.Println(exp.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&experimentsPath, "config", "c", "config/experiments.yaml", "experiments file")
	rootCmd.PersistentFlags().StringVarP(&datasetPath, "data", "d", "data/portraits.json", "portrait dataset")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
