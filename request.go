package niri

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCompositor is returned by Request when the compositor answers with an
// error reply instead of a result, e.g. for an unknown action.
var ErrCompositor = errors.New("compositor returned an error")

// Request is one message on the request/reply channel. Plain requests
// marshal to a bare JSON string ("Workspaces"); parameterized requests
// marshal to a single-key object ({"Action": {...}}).
type Request struct {
	name    string
	payload interface{}
}

var (
	RequestVersion         = Request{name: "Version"}
	RequestOutputs         = Request{name: "Outputs"}
	RequestWorkspaces      = Request{name: "Workspaces"}
	RequestWindows         = Request{name: "Windows"}
	RequestKeyboardLayouts = Request{name: "KeyboardLayouts"}
	RequestFocusedOutput   = Request{name: "FocusedOutput"}
	RequestFocusedWindow   = Request{name: "FocusedWindow"}
	RequestEventStream     = Request{name: "EventStream"}

	// RequestReturnError always fails; useful for testing error handling.
	RequestReturnError = Request{name: "ReturnError"}
)

// RequestAction wraps an arbitrary action payload, e.g.
// RequestAction(map[string]interface{}{"FocusWorkspace": map[string]interface{}{"reference": map[string]interface{}{"Index": 2}}}).
// The action catalog is large and evolves with the compositor, so this
// package does not enumerate it.
func RequestAction(action interface{}) Request {
	return Request{name: "Action", payload: action}
}

func (r Request) MarshalJSON() ([]byte, error) {
	if r.payload == nil {
		return json.Marshal(r.name)
	}

	return json.Marshal(map[string]interface{}{r.name: r.payload})
}

// replyEnvelope is the wire form of a reply: exactly one of Ok or Err.
type replyEnvelope struct {
	Ok  json.RawMessage `json:"Ok,omitempty"`
	Err *string         `json:"Err,omitempty"`
}

// unwrapReply extracts the Ok payload or surfaces the compositor's error.
func unwrapReply(raw []byte) (json.RawMessage, error) {
	var reply replyEnvelope
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reply: %v", err)
	}

	if reply.Err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompositor, *reply.Err)
	}

	if reply.Ok == nil {
		return nil, errors.New("reply carried neither Ok nor Err")
	}

	return reply.Ok, nil
}

// ReplyResolver populates a caller-provided destination from the Ok payload
// of a reply. The resolvers in this package can be used to construct the
// destination for the bundled request types.
type ReplyResolver func(payload []byte) error

// ToStruct unmarshals the Ok payload directly into res.
func ToStruct(res interface{}) ReplyResolver {
	return func(payload []byte) error {
		return json.Unmarshal(payload, res)
	}
}

// toField unmarshals one named field of the Ok payload. Replies to plain
// requests are single-key objects named after the request.
func toField(name string, res interface{}) ReplyResolver {
	return func(payload []byte) error {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return err
		}

		raw, ok := fields[name]
		if !ok {
			return fmt.Errorf("reply is missing the %q field", name)
		}

		return json.Unmarshal(raw, res)
	}
}

// ToWorkspaces resolves the reply to RequestWorkspaces.
func ToWorkspaces(res *[]Workspace) ReplyResolver {
	return toField("Workspaces", res)
}

// ToWindows resolves the reply to RequestWindows.
func ToWindows(res *[]Window) ReplyResolver {
	return toField("Windows", res)
}

// ToKeyboardLayouts resolves the reply to RequestKeyboardLayouts.
func ToKeyboardLayouts(res *KeyboardLayouts) ReplyResolver {
	return toField("KeyboardLayouts", res)
}

// ToFocusedWindow resolves the reply to RequestFocusedWindow. The result is
// nil when no window is focused.
func ToFocusedWindow(res **Window) ReplyResolver {
	return toField("FocusedWindow", res)
}

// ToVersion resolves the reply to RequestVersion.
func ToVersion(res *string) ReplyResolver {
	return toField("Version", res)
}
