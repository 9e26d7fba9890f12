package handlers

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/backsoul/devops-quiz/pkg/apperr"
	"github.com/backsoul/devops-quiz/pkg/models"
)

// submissionBody cuerpo crudo de una respuesta. Los campos se validan a mano
// para distinguir "ausente", "null" y tipos incorrectos.
type submissionBody struct {
	QuestionID json.RawMessage `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

type quizBody struct {
	Answers json.RawMessage `json:"answers"`
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseID acepta un entero JSON o un string numérico ("7").
// nil significa ausente.
func parseID(raw json.RawMessage) (*int, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err == nil {
			return &n, nil
		}
	}
	return nil, apperr.Validation("questionId must be an integer")
}

// parseAnswer exige un número JSON entero y lo devuelve en forma decimal
// ("0.0" -> "0", "1e2" -> "100"). Los que no caben en int se conservan y se
// califican como incorrectos. nil significa ausente.
func parseAnswer(raw json.RawMessage) (*json.Number, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errBadAnswer
	}
	num, ok := v.(json.Number)
	if !ok {
		return nil, errBadAnswer
	}
	n, ok := integral(num)
	if !ok {
		return nil, errBadAnswer
	}
	return &n, nil
}

var errBadAnswer = apperr.Validation("answer must be an integer option index")

// maxAnswerExponent acota el trabajo de big.Rat con exponentes enormes
const maxAnswerExponent = 400

// integral normaliza num si su valor es entero
func integral(num json.Number) (json.Number, bool) {
	s := num.String()
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(s[i+1:], "+"))
		if err != nil || exp > maxAnswerExponent || exp < -maxAnswerExponent {
			if strings.Trim(s[:i], "-0.") == "" {
				return "0", true
			}
			// con exponente positivo es un entero gigante; con negativo, fracción
			if strings.HasPrefix(s[i+1:], "-") {
				return "", false
			}
			return num, true
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return "", false
	}
	return json.Number(r.Num().String()), true
}

// parseSubmission decodifica POST /submit
func parseSubmission(body []byte) (models.AnswerSubmission, error) {
	var req submissionBody
	if err := json.Unmarshal(body, &req); err != nil {
		return models.AnswerSubmission{}, apperr.Validation("invalid JSON body")
	}
	id, err := parseID(req.QuestionID)
	if err != nil {
		return models.AnswerSubmission{}, err
	}
	answer, err := parseAnswer(req.Answer)
	if err != nil {
		return models.AnswerSubmission{}, err
	}
	return models.AnswerSubmission{QuestionID: id, Answer: answer}, nil
}

// parseQuiz decodifica POST /submit-quiz. Devuelve nil si falta "answers".
// Las entradas ilegibles se conservan con campos nil para que cuenten en
// total pero no se resuelvan.
func parseQuiz(body []byte) ([]models.AnswerSubmission, error) {
	var req quizBody
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, apperr.Validation("invalid JSON body")
		}
	}
	if isAbsent(req.Answers) {
		return nil, nil
	}
	if bytes.TrimSpace(req.Answers)[0] != '[' {
		return nil, apperr.Validation("answers array is required")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(req.Answers, &items); err != nil {
		return nil, apperr.Validation("answers array is required")
	}

	submissions := make([]models.AnswerSubmission, len(items))
	for i, item := range items {
		var entry submissionBody
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		id, _ := parseID(entry.QuestionID)
		answer, _ := parseAnswer(entry.Answer)
		submissions[i] = models.AnswerSubmission{QuestionID: id, Answer: answer}
	}
	return submissions, nil
}

// parseLimit valida el parámetro ?limit. "" significa ausente.
func parseLimit(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, apperr.Validation("limit must be a positive integer")
	}
	return &n, nil
}

// parsePathID valida el {id} de la ruta
func parsePathID(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("question id must be an integer")
	}
	return n, nil
}
