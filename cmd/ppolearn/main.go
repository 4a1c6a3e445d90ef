// The ppolearn command trains a PPO agent on one of the built-in
// environments. The experiment is described by a JSON configuration
// file, a default version of which can be printed with the config
// subcommand.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppolab/ppolearn/agent/ppo"
	"github.com/ppolab/ppolearn/environment/envconfig"
)

// experimentConfig packages everything needed to run one training
// experiment
type experimentConfig struct {
	Environment envconfig.Config
	Agent       ppo.Config

	Epochs        int
	OptimizeEvery int
	MaxEpisodes   int
	MaxSteps      int
	Seed          uint64
}

// defaultExperimentConfig returns the configuration of a CartPole
// experiment with default hyperparameters
func defaultExperimentConfig() experimentConfig {
	return experimentConfig{
		Environment:   envconfig.NewConfig(envconfig.Cartpole, 500, 1.0),
		Agent:         ppo.DefaultConfig(),
		Epochs:        4,
		OptimizeEvery: 2048,
		MaxEpisodes:   1000,
		MaxSteps:      500,
		Seed:          1,
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ppolearn",
		Short: "Train PPO agents on classic control environments",
	}

	var configPath, rewardsOut, lossOut string

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Run a training experiment described by a JSON config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(configPath, rewardsOut, lossOut)
		},
	}
	trainCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to the experiment configuration file (default config if unset)")
	trainCmd.Flags().StringVar(&rewardsOut, "rewards-out", "rewards.bin",
		"file to save the evaluation reward table to")
	trainCmd.Flags().StringVar(&lossOut, "loss-out", "loss.bin",
		"file to save the loss table to")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the default experiment configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "    ")
			return encoder.Encode(defaultExperimentConfig())
		},
	}

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(configCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTraining(configPath, rewardsOut, lossOut string) error {
	config := defaultExperimentConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("could not read config file: %v", err)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("could not parse config file: %v", err)
		}
	}

	env, _ := config.Environment.Create(config.Seed)

	a, err := config.Agent.CreateAgent(env, config.Seed)
	if err != nil {
		return fmt.Errorf("could not create agent: %v", err)
	}
	p := a.(*ppo.PPO)

	evalTable, lossTable, err := p.Training(config.Epochs,
		config.OptimizeEvery, config.MaxEpisodes, config.MaxSteps)
	if err != nil {
		return fmt.Errorf("training failed: %v", err)
	}

	if err := evalTable.Save(rewardsOut); err != nil {
		return err
	}
	if err := lossTable.Save(lossOut); err != nil {
		return err
	}
	fmt.Printf("Saved evaluation rewards to %v and losses to %v\n",
		rewardsOut, lossOut)

	return nil
}
