package ppo

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"
)

// EvaluationRow records the cumulative reward of a single evaluation
// rollout run after the given training episode
type EvaluationRow struct {
	Episode int
	Reward  float64
}

// EvaluationTable records the rewards of all evaluation rollouts of a
// training run
type EvaluationTable struct {
	Rows        []EvaluationRow
	LossName    string
	ElapsedTime time.Duration
}

// Save gob encodes the table to the file at filename
func (e *EvaluationTable) Save(filename string) error {
	return saveTable(filename, e)
}

// LoadEvaluationTable loads an EvaluationTable saved at filename
func LoadEvaluationTable(filename string) (*EvaluationTable, error) {
	table := &EvaluationTable{}
	if err := loadTable(filename, table); err != nil {
		return nil, err
	}
	return table, nil
}

// LossRow records the loss metrics of the final epoch of one
// optimization pass. DryLoss is the objective value before the entropy
// bonus is subtracted.
type LossRow struct {
	Loss    float64
	DryLoss float64
	Entropy float64
	Update  int
}

// LossTable records the loss metrics of all optimization passes of a
// training run
type LossTable struct {
	Rows     []LossRow
	LossName string
}

// Save gob encodes the table to the file at filename
func (l *LossTable) Save(filename string) error {
	return saveTable(filename, l)
}

// LoadLossTable loads a LossTable saved at filename
func LoadLossTable(filename string) (*LossTable, error) {
	table := &LossTable{}
	if err := loadTable(filename, table); err != nil {
		return nil, err
	}
	return table, nil
}

func saveTable(filename string, table interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(table); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

func loadTable(filename string, table interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(table); err != nil {
		return fmt.Errorf("load: could not decode data: %v", err)
	}
	return nil
}
