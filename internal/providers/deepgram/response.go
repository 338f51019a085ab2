package deepgram

import (
	"encoding/json"
	"errors"
	"strings"

	"beespeak/internal/domain"
)

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []alternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// decodeEvent turns one listen message into a transcript event. Messages that
// carry no text report ok=false; provider error messages are returned as err.
// Unparseable payloads are ignored.
func decodeEvent(payload []byte) (event domain.TranscriptEvent, ok bool, err error) {
	var response listenResponse
	if json.Unmarshal(payload, &response) != nil {
		return domain.TranscriptEvent{}, false, nil
	}

	if strings.EqualFold(response.Type, "Error") {
		message := strings.TrimSpace(response.Message)
		if message == "" {
			message = strings.TrimSpace(response.Description)
		}
		if message == "" {
			message = "deepgram returned an unknown error"
		}
		return domain.TranscriptEvent{}, false, errors.New(message)
	}

	text := response.transcript()
	if text == "" {
		return domain.TranscriptEvent{}, false, nil
	}

	event = domain.TranscriptEvent{
		Kind:          domain.TranscriptKindPartial,
		Text:          text,
		IsSpeechFinal: response.SpeechFinal,
	}
	if response.IsFinal || response.SpeechFinal {
		event.Kind = domain.TranscriptKindFinal
	}
	return event, true, nil
}

func (r listenResponse) transcript() string {
	if len(r.Channel.Alternatives) > 0 {
		if text := strings.TrimSpace(r.Channel.Alternatives[0].Transcript); text != "" {
			return text
		}
	}
	if len(r.Results.Channels) > 0 && len(r.Results.Channels[0].Alternatives) > 0 {
		return strings.TrimSpace(r.Results.Channels[0].Alternatives[0].Transcript)
	}
	return ""
}
