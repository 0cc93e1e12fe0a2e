package model

import "fmt"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("difficulty_level %q is not one of easy, medium, hard", s)
}

type Status string

const (
	StatusInProgress Status = "in progress"
	StatusDone       Status = "done"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusInProgress, StatusDone:
		return st, nil
	}
	return "", fmt.Errorf("status %q is not one of 'in progress', done", s)
}
