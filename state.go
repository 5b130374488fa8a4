package niri

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvariantViolation is returned by Apply when an event references an
// entity the protocol guarantees should already be tracked (e.g. activating
// a workspace that is not in the map). It indicates a bug in the transport
// layer or a violated protocol assumption, not a condition worth retrying.
var ErrInvariantViolation = errors.New("event stream invariant violation")

type (
	// StatePart is one independently-usable slice of mirrored compositor
	// state.
	//
	// Apply attempts to interpret the event. If the event's variant is one
	// this part understands, it mutates internal state, notifies listeners
	// and returns true; otherwise it returns false and the caller may offer
	// the event to the next part. Events must be delivered one at a time, in
	// arrival order, by a single goroutine; parts do no locking of their
	// own.
	//
	// Replicate produces the minimal sequence of synthetic events that, fed
	// in order into a freshly constructed part of the same kind, reproduces
	// the current state exactly.
	StatePart interface {
		Apply(ev Event) (bool, error)
		Replicate() []Event

		// AddListener registers a callback invoked once per claimed Apply,
		// and returns a handle for RemoveListener. Both may be called from
		// within a callback.
		AddListener(fn func()) int
		RemoveListener(handle int)
	}

	// listenerSet is the change-notification mechanism shared by all state
	// parts. Callbacks are keyed by handle so they can be removed again; Go
	// functions are not comparable.
	listenerSet struct {
		nextHandle int
		fns        map[int]func()
	}

	// WorkspacesState mirrors the compositor's workspaces, keyed by id.
	WorkspacesState struct {
		listenerSet
		workspaces map[ID]Workspace
	}

	// WindowsState mirrors the compositor's toplevel windows, keyed by id.
	WindowsState struct {
		listenerSet
		windows map[ID]Window
	}

	// KeyboardLayoutsState mirrors the configured keyboard layouts. Layouts
	// is nil until the first EventKeyboardLayoutsChanged arrives.
	KeyboardLayoutsState struct {
		listenerSet
		layouts *KeyboardLayouts
	}

	// OverviewState mirrors whether the overview is open.
	OverviewState struct {
		listenerSet
		isOpen bool
	}

	// ConfigState mirrors whether the last config load attempt failed.
	ConfigState struct {
		listenerSet
		failed bool
	}

	// EventStreamState aggregates every state part and routes each incoming
	// event through them in a fixed order: workspaces, windows, keyboard
	// layouts, overview, config. The first part to claim an event wins; an
	// event no part claims (e.g. EventScreenshotCaptured) is dropped
	// silently.
	//
	// The same ordering governs Replicate, so a consumer resuming from
	// replicated events sees the same part ordering a cold subscription
	// would produce.
	EventStreamState struct {
		listenerSet

		workspaces      *WorkspacesState
		windows         *WindowsState
		keyboardLayouts *KeyboardLayoutsState
		overview        *OverviewState
		config          *ConfigState
	}
)

func (ls *listenerSet) AddListener(fn func()) int {
	if ls.fns == nil {
		ls.fns = make(map[int]func())
	}

	handle := ls.nextHandle
	ls.nextHandle++
	ls.fns[handle] = fn

	return handle
}

func (ls *listenerSet) RemoveListener(handle int) {
	delete(ls.fns, handle)
}

// notify invokes every registered callback. It iterates a snapshot of the
// set, in handle order, so callbacks can add or remove listeners without
// invalidating the iteration.
func (ls *listenerSet) notify() {
	handles := make([]int, 0, len(ls.fns))
	for h := range ls.fns {
		handles = append(handles, h)
	}
	sort.Ints(handles)

	fns := make([]func(), 0, len(handles))
	for _, h := range handles {
		fns = append(fns, ls.fns[h])
	}

	for _, fn := range fns {
		fn()
	}
}

// NewWorkspacesState returns an empty workspaces mirror.
func NewWorkspacesState() *WorkspacesState {
	return &WorkspacesState{workspaces: make(map[ID]Workspace)}
}

// Workspaces returns a copy of the current workspaces map.
func (s *WorkspacesState) Workspaces() map[ID]Workspace {
	out := make(map[ID]Workspace, len(s.workspaces))
	for id, ws := range s.workspaces {
		out[id] = ws
	}

	return out
}

// Workspace returns the workspace with the given id, if tracked.
func (s *WorkspacesState) Workspace(id ID) (Workspace, bool) {
	ws, ok := s.workspaces[id]
	return ws, ok
}

func (s *WorkspacesState) Apply(ev Event) (bool, error) {
	switch p := ev.Payload.(type) {
	case EventWorkspacesChanged:
		s.workspaces = make(map[ID]Workspace, len(p.Workspaces))
		for _, ws := range p.Workspaces {
			s.workspaces[ws.ID] = ws
		}
	case EventWorkspaceUrgencyChanged:
		ws, ok := s.workspaces[p.ID]
		if !ok {
			return false, fmt.Errorf("%w: urgency changed for unknown workspace %d", ErrInvariantViolation, p.ID)
		}

		ws.IsUrgent = p.Urgent
		s.workspaces[p.ID] = ws
	case EventWorkspaceActivated:
		activated, ok := s.workspaces[p.ID]
		if !ok {
			return false, fmt.Errorf("%w: activated unknown workspace %d", ErrInvariantViolation, p.ID)
		}

		for id, ws := range s.workspaces {
			if sameOutput(ws.Output, activated.Output) {
				ws.IsActive = id == p.ID
			}

			if p.Focused {
				ws.IsFocused = id == p.ID
			}

			s.workspaces[id] = ws
		}
	case EventWorkspaceActiveWindowChanged:
		ws, ok := s.workspaces[p.WorkspaceID]
		if !ok {
			return false, fmt.Errorf("%w: active window changed on unknown workspace %d", ErrInvariantViolation, p.WorkspaceID)
		}

		ws.ActiveWindowID = p.ActiveWindowID
		s.workspaces[p.WorkspaceID] = ws
	default:
		return false, nil
	}

	s.notify()

	return true, nil
}

// Replicate returns a single EventWorkspacesChanged snapshot, with
// workspaces ordered by id for determinism.
func (s *WorkspacesState) Replicate() []Event {
	workspaces := make([]Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		workspaces = append(workspaces, ws)
	}
	sort.Slice(workspaces, func(i, j int) bool { return workspaces[i].ID < workspaces[j].ID })

	return []Event{{
		Type:    EventTypeWorkspacesChanged,
		Payload: EventWorkspacesChanged{Workspaces: workspaces},
	}}
}

// sameOutput reports whether two workspaces live on the same output. Two
// disconnected workspaces (nil output) count as sharing one.
func sameOutput(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

// NewWindowsState returns an empty windows mirror.
func NewWindowsState() *WindowsState {
	return &WindowsState{windows: make(map[ID]Window)}
}

// Windows returns a copy of the current windows map.
func (s *WindowsState) Windows() map[ID]Window {
	out := make(map[ID]Window, len(s.windows))
	for id, w := range s.windows {
		out[id] = w
	}

	return out
}

// Window returns the window with the given id, if tracked.
func (s *WindowsState) Window(id ID) (Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

func (s *WindowsState) Apply(ev Event) (bool, error) {
	switch p := ev.Payload.(type) {
	case EventWindowsChanged:
		s.windows = make(map[ID]Window, len(p.Windows))
		for _, w := range p.Windows {
			s.windows[w.ID] = w
		}
	case EventWindowOpenedOrChanged:
		if p.Window.IsFocused {
			for id, w := range s.windows {
				if w.IsFocused {
					w.IsFocused = false
					s.windows[id] = w
				}
			}
		}

		s.windows[p.Window.ID] = p.Window
	case EventWindowClosed:
		if _, ok := s.windows[p.ID]; !ok {
			return false, fmt.Errorf("%w: closed unknown window %d", ErrInvariantViolation, p.ID)
		}

		delete(s.windows, p.ID)
	case EventWindowFocusChanged:
		for id, w := range s.windows {
			w.IsFocused = p.ID != nil && id == *p.ID
			s.windows[id] = w
		}
	case EventWindowUrgencyChanged:
		// Urgency races with the window lifecycle, so an unknown id is
		// expected here and tolerated, unlike everywhere else in this part.
		if w, ok := s.windows[p.ID]; ok {
			w.IsUrgent = p.Urgent
			s.windows[p.ID] = w
		}
	case EventWindowLayoutsChanged:
		// Changes apply in order; an unknown id mid-sequence leaves the
		// changes before it applied.
		for _, change := range p.Changes {
			w, ok := s.windows[change.ID]
			if !ok {
				return false, fmt.Errorf("%w: layout changed for unknown window %d", ErrInvariantViolation, change.ID)
			}

			w.Layout = change.WindowLayout
			s.windows[change.ID] = w
		}
	default:
		return false, nil
	}

	s.notify()

	return true, nil
}

// Replicate returns a single EventWindowsChanged snapshot, with windows
// ordered by id for determinism.
func (s *WindowsState) Replicate() []Event {
	windows := make([]Window, 0, len(s.windows))
	for _, w := range s.windows {
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].ID < windows[j].ID })

	return []Event{{
		Type:    EventTypeWindowsChanged,
		Payload: EventWindowsChanged{Windows: windows},
	}}
}

// NewKeyboardLayoutsState returns a keyboard layouts mirror with no layouts
// yet.
func NewKeyboardLayoutsState() *KeyboardLayoutsState {
	return &KeyboardLayoutsState{}
}

// KeyboardLayouts returns the current layouts, or false if none were
// received yet.
func (s *KeyboardLayoutsState) KeyboardLayouts() (KeyboardLayouts, bool) {
	if s.layouts == nil {
		return KeyboardLayouts{}, false
	}

	layouts := *s.layouts
	layouts.Names = append([]string(nil), s.layouts.Names...)

	return layouts, true
}

func (s *KeyboardLayoutsState) Apply(ev Event) (bool, error) {
	switch p := ev.Payload.(type) {
	case EventKeyboardLayoutsChanged:
		layouts := p.KeyboardLayouts
		s.layouts = &layouts
	case EventKeyboardLayoutSwitched:
		if s.layouts == nil {
			return false, fmt.Errorf("%w: keyboard layout switched before layouts were received", ErrInvariantViolation)
		}

		s.layouts.CurrentIdx = p.Idx
	default:
		return false, nil
	}

	s.notify()

	return true, nil
}

// Replicate returns one EventKeyboardLayoutsChanged, or nothing if layouts
// were never received.
func (s *KeyboardLayoutsState) Replicate() []Event {
	if s.layouts == nil {
		return nil
	}

	layouts, _ := s.KeyboardLayouts()

	return []Event{{
		Type:    EventTypeKeyboardLayoutsChanged,
		Payload: EventKeyboardLayoutsChanged{KeyboardLayouts: layouts},
	}}
}

// NewOverviewState returns an overview mirror reporting a closed overview.
func NewOverviewState() *OverviewState {
	return &OverviewState{}
}

// IsOpen reports whether the overview is open.
func (s *OverviewState) IsOpen() bool {
	return s.isOpen
}

func (s *OverviewState) Apply(ev Event) (bool, error) {
	p, ok := ev.Payload.(EventOverviewOpenedOrClosed)
	if !ok {
		return false, nil
	}

	s.isOpen = p.IsOpen
	s.notify()

	return true, nil
}

// Replicate always returns one EventOverviewOpenedOrClosed, even for the
// default closed state: the current value is always announced rather than
// skipped as redundant.
func (s *OverviewState) Replicate() []Event {
	return []Event{{
		Type:    EventTypeOverviewOpenedOrClosed,
		Payload: EventOverviewOpenedOrClosed{IsOpen: s.isOpen},
	}}
}

// NewConfigState returns a config mirror reporting a successful load.
func NewConfigState() *ConfigState {
	return &ConfigState{}
}

// Failed reports whether the last config load attempt failed.
func (s *ConfigState) Failed() bool {
	return s.failed
}

func (s *ConfigState) Apply(ev Event) (bool, error) {
	p, ok := ev.Payload.(EventConfigLoaded)
	if !ok {
		return false, nil
	}

	s.failed = p.Failed
	s.notify()

	return true, nil
}

// Replicate always returns one EventConfigLoaded.
func (s *ConfigState) Replicate() []Event {
	return []Event{{
		Type:    EventTypeConfigLoaded,
		Payload: EventConfigLoaded{Failed: s.failed},
	}}
}

// NewEventStreamState returns a composite state with every part in its
// default empty state.
func NewEventStreamState() *EventStreamState {
	return &EventStreamState{
		workspaces:      NewWorkspacesState(),
		windows:         NewWindowsState(),
		keyboardLayouts: NewKeyboardLayoutsState(),
		overview:        NewOverviewState(),
		config:          NewConfigState(),
	}
}

// parts returns the owned parts in routing order.
func (s *EventStreamState) parts() []StatePart {
	return []StatePart{s.workspaces, s.windows, s.keyboardLayouts, s.overview, s.config}
}

// Apply routes the event through the owned parts in order until one claims
// it. An event no part claims is dropped and reported as unclaimed, which is
// not an error. A claimed event additionally notifies the composite's own
// listeners.
func (s *EventStreamState) Apply(ev Event) (bool, error) {
	for _, part := range s.parts() {
		claimed, err := part.Apply(ev)
		if err != nil {
			return false, err
		}

		if claimed {
			s.notify()
			return true, nil
		}
	}

	return false, nil
}

// Replicate concatenates each part's replication in routing order. Feeding
// the result into a fresh EventStreamState reproduces this one.
func (s *EventStreamState) Replicate() []Event {
	var events []Event
	for _, part := range s.parts() {
		events = append(events, part.Replicate()...)
	}

	return events
}

// Workspaces returns the workspaces part.
func (s *EventStreamState) Workspaces() *WorkspacesState {
	return s.workspaces
}

// Windows returns the windows part.
func (s *EventStreamState) Windows() *WindowsState {
	return s.windows
}

// KeyboardLayouts returns the keyboard layouts part.
func (s *EventStreamState) KeyboardLayouts() *KeyboardLayoutsState {
	return s.keyboardLayouts
}

// Overview returns the overview part.
func (s *EventStreamState) Overview() *OverviewState {
	return s.overview
}

// Config returns the config part.
func (s *EventStreamState) Config() *ConfigState {
	return s.config
}
