package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PendingAnswer is a quiz answer selected offline, queued for the next
// `nv submit` run.
type PendingAnswer struct {
	Quarter    int    `json:"quarter"`
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
}

func answersPath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "answers.json"), nil
}

func LoadAnswers() ([]PendingAnswer, error) {
	path, err := answersPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []PendingAnswer{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []PendingAnswer{}, nil
	}
	var out []PendingAnswer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func SaveAnswers(answers []PendingAnswer) error {
	path, err := answersPath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// PushAnswer records a selection, replacing any earlier pick for the same
// question.
func PushAnswer(a PendingAnswer) error {
	answers, err := LoadAnswers()
	if err != nil {
		return err
	}
	replaced := false
	for i := range answers {
		if answers[i].Quarter == a.Quarter && answers[i].QuestionID == a.QuestionID {
			answers[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		answers = append(answers, a)
	}
	return SaveAnswers(answers)
}

// TakeQuarterAnswers removes and returns the queued answers for one quarter.
func TakeQuarterAnswers(quarter int) (map[string]string, error) {
	answers, err := LoadAnswers()
	if err != nil {
		return nil, err
	}
	picked := make(map[string]string)
	kept := answers[:0]
	for _, a := range answers {
		if a.Quarter == quarter {
			picked[a.QuestionID] = a.AnswerID
			continue
		}
		kept = append(kept, a)
	}
	if err := SaveAnswers(kept); err != nil {
		return nil, err
	}
	return picked, nil
}
