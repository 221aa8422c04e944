package handlers

import "strings"

// voiceWebhookPayload is the provider's webhook envelope. Extra fields are
// tolerated; only the sections a given event type uses are populated.
type voiceWebhookPayload struct {
	Type         string             `json:"type"`
	Call         *voiceCallInfo     `json:"call"`
	Message      *voiceMessageInfo  `json:"message"`
	FunctionCall *voiceFunctionCall `json:"functionCall"`
}

type voiceCallInfo struct {
	ID          string             `json:"id"`
	AssistantID string             `json:"assistantId"`
	Customer    *voiceCustomerInfo `json:"customer"`
	Duration    int                `json:"duration"`
	Cost        float64            `json:"cost"`
	EndedReason string             `json:"endedReason"`
}

type voiceCustomerInfo struct {
	Number string `json:"number"`
}

type voiceMessageInfo struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	ID      string `json:"id"`
}

type voiceFunctionCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

func (p *voiceWebhookPayload) callID() string {
	if p.Call == nil {
		return ""
	}
	return strings.TrimSpace(p.Call.ID)
}

func (p *voiceWebhookPayload) assistantID() string {
	if p.Call == nil {
		return ""
	}
	return strings.TrimSpace(p.Call.AssistantID)
}

func (p *voiceWebhookPayload) customerNumber() string {
	if p.Call == nil || p.Call.Customer == nil {
		return ""
	}
	return strings.TrimSpace(p.Call.Customer.Number)
}

// paramString reads a string parameter, tolerating absent keys and
// non-string values.
func paramString(params map[string]any, key string) string {
	v, ok := params[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// paramLookup reports whether the key was sent at all, so handlers can
// distinguish "not provided" from "provided empty".
func paramLookup(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}
