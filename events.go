package niri

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType names one variant of the compositor's event stream. The wire
// form of an event is a single-line JSON object with exactly one key, the
// variant name, mapping to that variant's payload object.
type EventType string

const (
	// Workspace.
	// "This configuration completely replaces the previous configuration.
	// i.e. if any workspaces are missing from here, then they were deleted."
	EventTypeWorkspacesChanged            EventType = "WorkspacesChanged"
	EventTypeWorkspaceUrgencyChanged      EventType = "WorkspaceUrgencyChanged"
	EventTypeWorkspaceActivated           EventType = "WorkspaceActivated"
	EventTypeWorkspaceActiveWindowChanged EventType = "WorkspaceActiveWindowChanged"

	// Window.
	EventTypeWindowsChanged        EventType = "WindowsChanged"
	EventTypeWindowOpenedOrChanged EventType = "WindowOpenedOrChanged"
	EventTypeWindowClosed          EventType = "WindowClosed"
	EventTypeWindowFocusChanged    EventType = "WindowFocusChanged"
	EventTypeWindowUrgencyChanged  EventType = "WindowUrgencyChanged"
	EventTypeWindowLayoutsChanged  EventType = "WindowLayoutsChanged"

	// Keyboard.
	EventTypeKeyboardLayoutsChanged EventType = "KeyboardLayoutsChanged"
	EventTypeKeyboardLayoutSwitched EventType = "KeyboardLayoutSwitched"

	// Misc.
	EventTypeOverviewOpenedOrClosed EventType = "OverviewOpenedOrClosed"
	EventTypeConfigLoaded           EventType = "ConfigLoaded"
	EventTypeScreenshotCaptured     EventType = "ScreenshotCaptured"
)

type (
	// Workspace.
	EventWorkspacesChanged struct {
		// Workspaces completely replaces the previous workspace
		// configuration.
		Workspaces []Workspace `json:"workspaces"`
	}
	EventWorkspaceUrgencyChanged struct {
		ID     ID   `json:"id"`
		Urgent bool `json:"urgent"`
	}
	// EventWorkspaceActivated means the workspace is now the active one on
	// its output; all other workspaces on that output become inactive. It
	// doesn't always mean the workspace became focused.
	EventWorkspaceActivated struct {
		ID ID `json:"id"`

		// Focused reports whether the workspace also became the single
		// focused workspace across all outputs.
		Focused bool `json:"focused"`
	}
	EventWorkspaceActiveWindowChanged struct {
		WorkspaceID ID `json:"workspace_id"`

		// ActiveWindowID is the id of the new active window, if any.
		ActiveWindowID *ID `json:"active_window_id"`
	}

	// Window.
	EventWindowsChanged struct {
		// Windows completely replaces the previous window configuration.
		Windows []Window `json:"windows"`
	}
	EventWindowOpenedOrChanged struct {
		// Window is the new or updated window. If it is focused, all other
		// windows are no longer focused.
		Window Window `json:"window"`
	}
	EventWindowClosed struct {
		ID ID `json:"id"`
	}
	// EventWindowFocusChanged carries the id of the newly focused window, or
	// nil if no window is now focused. All other windows are no longer
	// focused.
	EventWindowFocusChanged struct {
		ID *ID `json:"id"`
	}
	EventWindowUrgencyChanged struct {
		ID     ID   `json:"id"`
		Urgent bool `json:"urgent"`
	}
	// EventWindowLayoutsChanged carries tile location and/or size changes
	// for one or more windows. It does not trigger for a window's physical
	// location changing.
	EventWindowLayoutsChanged struct {
		Changes []WindowLayoutChange `json:"changes"`
	}

	// Keyboard.
	EventKeyboardLayoutsChanged struct {
		KeyboardLayouts KeyboardLayouts `json:"keyboard_layouts"`
	}
	EventKeyboardLayoutSwitched struct {
		// Idx is the index of the newly active layout.
		Idx uint8 `json:"idx"`
	}

	// Misc.
	EventOverviewOpenedOrClosed struct {
		IsOpen bool `json:"is_open"`
	}
	// EventConfigLoaded is always received when connecting to the event
	// stream, indicating the last config load attempt.
	EventConfigLoaded struct {
		// Failed reports whether loading failed, e.g. the config file
		// couldn't be parsed.
		Failed bool `json:"failed"`
	}
	EventScreenshotCaptured struct {
		// Path is where the screenshot was saved, if it was written to disk.
		Path *string `json:"path"`
	}
)

// Event holds the event type and a payload that can be type-cast into the
// correct event-type model, e.g. a type switch over the payload structs
// above.
type Event struct {
	Type EventType

	// Payload needs to be type-cast into an event struct, according to the
	// event type above.
	Payload interface{}
}

var errUnknownEvent = errors.New("unknown event")

// eventEnvelope mirrors the wire form: exactly one field is set.
type eventEnvelope struct {
	WorkspacesChanged            *EventWorkspacesChanged            `json:"WorkspacesChanged,omitempty"`
	WorkspaceUrgencyChanged      *EventWorkspaceUrgencyChanged      `json:"WorkspaceUrgencyChanged,omitempty"`
	WorkspaceActivated           *EventWorkspaceActivated           `json:"WorkspaceActivated,omitempty"`
	WorkspaceActiveWindowChanged *EventWorkspaceActiveWindowChanged `json:"WorkspaceActiveWindowChanged,omitempty"`
	WindowsChanged               *EventWindowsChanged               `json:"WindowsChanged,omitempty"`
	WindowOpenedOrChanged        *EventWindowOpenedOrChanged        `json:"WindowOpenedOrChanged,omitempty"`
	WindowClosed                 *EventWindowClosed                 `json:"WindowClosed,omitempty"`
	WindowFocusChanged           *EventWindowFocusChanged           `json:"WindowFocusChanged,omitempty"`
	WindowUrgencyChanged         *EventWindowUrgencyChanged         `json:"WindowUrgencyChanged,omitempty"`
	WindowLayoutsChanged         *EventWindowLayoutsChanged         `json:"WindowLayoutsChanged,omitempty"`
	KeyboardLayoutsChanged       *EventKeyboardLayoutsChanged       `json:"KeyboardLayoutsChanged,omitempty"`
	KeyboardLayoutSwitched       *EventKeyboardLayoutSwitched       `json:"KeyboardLayoutSwitched,omitempty"`
	OverviewOpenedOrClosed       *EventOverviewOpenedOrClosed       `json:"OverviewOpenedOrClosed,omitempty"`
	ConfigLoaded                 *EventConfigLoaded                 `json:"ConfigLoaded,omitempty"`
	ScreenshotCaptured           *EventScreenshotCaptured           `json:"ScreenshotCaptured,omitempty"`
}

// UnmarshalJSON decodes the single-key wire form into a typed Event. An
// unrecognized variant returns an errUnknownEvent-wrapped error so callers
// can skip it without tearing down the stream.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to unmarshal event: %v", err)
	}

	switch {
	case env.WorkspacesChanged != nil:
		*e = Event{Type: EventTypeWorkspacesChanged, Payload: *env.WorkspacesChanged}
	case env.WorkspaceUrgencyChanged != nil:
		*e = Event{Type: EventTypeWorkspaceUrgencyChanged, Payload: *env.WorkspaceUrgencyChanged}
	case env.WorkspaceActivated != nil:
		*e = Event{Type: EventTypeWorkspaceActivated, Payload: *env.WorkspaceActivated}
	case env.WorkspaceActiveWindowChanged != nil:
		*e = Event{Type: EventTypeWorkspaceActiveWindowChanged, Payload: *env.WorkspaceActiveWindowChanged}
	case env.WindowsChanged != nil:
		*e = Event{Type: EventTypeWindowsChanged, Payload: *env.WindowsChanged}
	case env.WindowOpenedOrChanged != nil:
		*e = Event{Type: EventTypeWindowOpenedOrChanged, Payload: *env.WindowOpenedOrChanged}
	case env.WindowClosed != nil:
		*e = Event{Type: EventTypeWindowClosed, Payload: *env.WindowClosed}
	case env.WindowFocusChanged != nil:
		*e = Event{Type: EventTypeWindowFocusChanged, Payload: *env.WindowFocusChanged}
	case env.WindowUrgencyChanged != nil:
		*e = Event{Type: EventTypeWindowUrgencyChanged, Payload: *env.WindowUrgencyChanged}
	case env.WindowLayoutsChanged != nil:
		*e = Event{Type: EventTypeWindowLayoutsChanged, Payload: *env.WindowLayoutsChanged}
	case env.KeyboardLayoutsChanged != nil:
		*e = Event{Type: EventTypeKeyboardLayoutsChanged, Payload: *env.KeyboardLayoutsChanged}
	case env.KeyboardLayoutSwitched != nil:
		*e = Event{Type: EventTypeKeyboardLayoutSwitched, Payload: *env.KeyboardLayoutSwitched}
	case env.OverviewOpenedOrClosed != nil:
		*e = Event{Type: EventTypeOverviewOpenedOrClosed, Payload: *env.OverviewOpenedOrClosed}
	case env.ConfigLoaded != nil:
		*e = Event{Type: EventTypeConfigLoaded, Payload: *env.ConfigLoaded}
	case env.ScreenshotCaptured != nil:
		*e = Event{Type: EventTypeScreenshotCaptured, Payload: *env.ScreenshotCaptured}
	default:
		return fmt.Errorf("%w: %s", errUnknownEvent, string(data))
	}

	return nil
}

// MarshalJSON produces the same single-key wire form the compositor emits.
func (e Event) MarshalJSON() ([]byte, error) {
	var env eventEnvelope

	switch p := e.Payload.(type) {
	case EventWorkspacesChanged:
		env.WorkspacesChanged = &p
	case EventWorkspaceUrgencyChanged:
		env.WorkspaceUrgencyChanged = &p
	case EventWorkspaceActivated:
		env.WorkspaceActivated = &p
	case EventWorkspaceActiveWindowChanged:
		env.WorkspaceActiveWindowChanged = &p
	case EventWindowsChanged:
		env.WindowsChanged = &p
	case EventWindowOpenedOrChanged:
		env.WindowOpenedOrChanged = &p
	case EventWindowClosed:
		env.WindowClosed = &p
	case EventWindowFocusChanged:
		env.WindowFocusChanged = &p
	case EventWindowUrgencyChanged:
		env.WindowUrgencyChanged = &p
	case EventWindowLayoutsChanged:
		env.WindowLayoutsChanged = &p
	case EventKeyboardLayoutsChanged:
		env.KeyboardLayoutsChanged = &p
	case EventKeyboardLayoutSwitched:
		env.KeyboardLayoutSwitched = &p
	case EventOverviewOpenedOrClosed:
		env.OverviewOpenedOrClosed = &p
	case EventConfigLoaded:
		env.ConfigLoaded = &p
	case EventScreenshotCaptured:
		env.ScreenshotCaptured = &p
	default:
		return nil, fmt.Errorf("cannot marshal event payload of type %T", e.Payload)
	}

	return json.Marshal(env)
}
