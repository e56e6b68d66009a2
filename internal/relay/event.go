package relay

import "encoding/json"

// upstreamEvent is the minimal envelope the down-pump needs to inspect
// before deciding how to handle a textual frame, per spec.md §4.5's
// event-type dispatch table.
type upstreamEvent struct {
	Type string `json:"type"`
}

// functionCallArgsDone is the intercepted
// response.function_call_arguments.done event.
type functionCallArgsDone struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// functionCallOutputEvent is sent upstream after a tool call completes.
type functionCallOutputEvent struct {
	Type string               `json:"type"`
	Item functionCallOutputItem `json:"item"`
}

type functionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

func newFunctionCallOutputEvent(callID, output string) functionCallOutputEvent {
	return functionCallOutputEvent{
		Type: "conversation.item.create",
		Item: functionCallOutputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}

// responseCreateEvent triggers upstream generation after a tool result
// has been delivered.
type responseCreateEvent struct {
	Type string `json:"type"`
}

func newResponseCreateEvent() responseCreateEvent {
	return responseCreateEvent{Type: "response.create"}
}

// agentHandoffEvent is the gateway's one custom outbound event to the
// browser, per spec.md §6.
type agentHandoffEvent struct {
	Type        string `json:"type"`
	TargetAgent string `json:"target_agent"`
	Message     string `json:"message"`
}

func marshalEvent(v any) ([]byte, error) {
	return json.Marshal(v)
}
