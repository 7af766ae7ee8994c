package provider

import (
	"strings"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

// CallStatus is one status-document read. Status is normalized to lowercase;
// Raw keeps the full provider document for summary extraction.
type CallStatus struct {
	Status string
	Raw    map[string]any
	Error  string
}

var terminalStatuses = map[string]bool{
	"ended":         true,
	"error":         true,
	"not_connected": true,
	"completed":     true,
	"finished":      true,
	"done":          true,
	"failed":        true,
}

var successStatuses = map[string]bool{
	"ended":     true,
	"completed": true,
	"finished":  true,
	"done":      true,
}

// noAnswerReasons mark calls where the contact is reachable but did not pick
// up. These get the longer retry delay.
var noAnswerReasons = map[string]bool{
	"no_answer":      true,
	"dial_no_answer": true,
	"busy":           true,
	"dial_busy":      true,
	"not_connected":  true,
	"voicemail":      true,
}

func newCallStatus(raw map[string]any) CallStatus {
	status, _ := raw["call_status"].(string)
	if status == "" {
		status, _ = raw["status"].(string)
	}
	return CallStatus{Status: strings.ToLower(status), Raw: raw}
}

// Terminal reports whether the call reached a final state. Unrecognized
// statuses are treated as still in progress.
func (s CallStatus) Terminal() bool {
	return s.Error == "" && terminalStatuses[s.Status]
}

// Succeeded reports whether the call completed normally: a success-family
// terminal status whose disconnection reason is not a contactability failure.
func (s CallStatus) Succeeded() bool {
	return s.Terminal() && successStatuses[s.Status] && !noAnswerReasons[s.disconnectionReason()]
}

// NoAnswer reports a busy/no-answer/not-connected style outcome.
func (s CallStatus) NoAnswer() bool {
	if s.Status == "not_connected" {
		return true
	}
	return noAnswerReasons[s.disconnectionReason()]
}

func (s CallStatus) disconnectionReason() string {
	reason, _ := s.Raw["disconnection_reason"].(string)
	return strings.ToLower(reason)
}

// Summary pulls the provider-reported call details out of the raw document.
// Missing fields are left at their zero values.
func (s CallStatus) Summary() domain.CallSummary {
	sum := domain.CallSummary{
		DisconnectionReason: s.disconnectionReason(),
	}

	if ms, ok := numField(s.Raw, "duration_ms"); ok {
		sum.DurationSeconds = int(ms / 1000)
	} else if start, ok := numField(s.Raw, "start_timestamp"); ok {
		if end, ok := numField(s.Raw, "end_timestamp"); ok && end > start {
			sum.DurationSeconds = int((end - start) / 1000)
		}
	}

	if cost, ok := nestedNum(s.Raw, "call_cost", "combined_cost"); ok {
		sum.Cost = cost
	}
	if url, ok := s.Raw["recording_url"].(string); ok {
		sum.RecordingURL = url
	}
	if url, ok := s.Raw["transcript_url"].(string); ok {
		sum.TranscriptURL = url
	}

	if vars, ok := s.Raw["collected_dynamic_variables"].(map[string]any); ok {
		sum.Variables = make(map[string]string, len(vars))
		for k, v := range vars {
			if str, ok := v.(string); ok {
				sum.Variables[k] = str
			}
		}
	}

	return sum
}

// Result converts a terminal status read into the job's stored outcome.
func (s CallStatus) Result() domain.CallResult {
	return domain.CallResult{
		Success:   s.Succeeded(),
		Status:    s.Status,
		Summary:   s.Summary(),
		Timestamp: time.Now().UTC(),
	}
}

func numField(raw map[string]any, key string) (float64, bool) {
	v, ok := raw[key].(float64)
	return v, ok
}

func nestedNum(raw map[string]any, outer, inner string) (float64, bool) {
	m, ok := raw[outer].(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m[inner].(float64)
	return v, ok
}
