package app

import (
	"bytes"
	"encoding/json"
	"io"
)

const sessionEndedAnswer = "Session ended."

type Reply struct {
	Answer            string        `json:"answer"`
	Actions           []interface{} `json:"actions"`
	FollowUpQuestions []string      `json:"follow_up_questions"`
}

type SubmitResult struct {
	Ended     bool  `json:"ended"`
	Assistant Reply `json:"assistant"`
}

// ParseReply decodes the model output. ok is false when raw is not a single
// JSON object of the expected shape, in which case the whole text becomes the
// answer. Numbers inside actions are kept as json.Number so they re-encode
// exactly as the model wrote them.
func ParseReply(raw string) (reply Reply, ok bool) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fallbackReply(raw), false
	}

	var parsed struct {
		Answer            string        `json:"answer"`
		Actions           []interface{} `json:"actions"`
		FollowUpQuestions []string      `json:"follow_up_questions"`
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return fallbackReply(raw), false
	}
	if _, err := dec.Token(); err != io.EOF {
		return fallbackReply(raw), false
	}

	return normalize(Reply{
		Answer:            parsed.Answer,
		Actions:           parsed.Actions,
		FollowUpQuestions: parsed.FollowUpQuestions,
	}), true
}

func fallbackReply(raw string) Reply {
	return normalize(Reply{Answer: raw})
}

func endedReply() Reply {
	return normalize(Reply{Answer: sessionEndedAnswer})
}

func normalize(r Reply) Reply {
	if r.Actions == nil {
		r.Actions = []interface{}{}
	}
	if r.FollowUpQuestions == nil {
		r.FollowUpQuestions = []string{}
	}
	return r
}
