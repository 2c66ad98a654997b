package flow

import (
	"errors"
	"fmt"
	"os"

	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// LoadQuestionnaire reads a questionnaire from a YAML or JSON file.
// Questions without a type are open questions.
func LoadQuestionnaire(path string) (q Questionnaire, err error) {
	defer decorate.OnError(&err, "could not load questionnaire %q", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return Questionnaire{}, err
	}
	if err := yaml.Unmarshal(data, &q); err != nil {
		return Questionnaire{}, err
	}
	if len(q.Questions) == 0 {
		return Questionnaire{}, errors.New("no questions")
	}

	for i, question := range q.Questions {
		switch question.Kind {
		case "":
			q.Questions[i].Kind = QuestionOpen
		case QuestionOpen:
		case QuestionMultipleChoice, QuestionCheckbox:
			if len(question.Choices) == 0 {
				return Questionnaire{}, fmt.Errorf("question %d has no choices", question.ID)
			}
		default:
			return Questionnaire{}, fmt.Errorf("question %d has unknown type %q", question.ID, question.Kind)
		}
	}
	return q, nil
}
