package niri

import (
	"encoding/json"
	"fmt"
)

type (
	// ID represents any niri ID type. Ids are stable and unique while the
	// entity they name exists, but are otherwise opaque: do not assume they
	// start at 1 or increase monotonically.
	ID uint64

	// Workspace contains all the info regarding a given workspace.
	Workspace struct {
		ID ID `json:"id"`

		// Index is the workspace's position on its output. It changes as
		// workspaces are reordered and is not unique across outputs; use ID
		// for a stable identifier.
		Index uint8 `json:"idx"`

		Name   *string `json:"name"`
		Output *string `json:"output"`

		IsUrgent bool `json:"is_urgent"`

		// IsActive reports whether this is the workspace currently visible
		// on its output. Every output has exactly one active workspace.
		IsActive bool `json:"is_active"`

		// IsFocused reports whether this is the single focused workspace
		// across all outputs.
		IsFocused bool `json:"is_focused"`

		ActiveWindowID *ID `json:"active_window_id"`
	}

	// Window contains all the info regarding a given toplevel window.
	Window struct {
		ID ID `json:"id"`

		Title *string `json:"title"`
		AppID *string `json:"app_id"`

		// PID of the process that created the Wayland connection for this
		// window, if known.
		PID *int32 `json:"pid"`

		// WorkspaceID is the id of the workspace this window is on, if any.
		WorkspaceID *ID `json:"workspace_id"`

		// IsFocused reports whether this window is currently focused. There
		// can be either one focused window or zero (e.g. when a layer-shell
		// surface has focus).
		IsFocused bool `json:"is_focused"`

		// IsFloating reports whether this window is floating. If it isn't,
		// it is in the tiling layout.
		IsFloating bool `json:"is_floating"`

		IsUrgent bool `json:"is_urgent"`

		// Layout holds the position and size related properties of the
		// window. The state engine treats it as opaque and replaces it
		// wholesale on update.
		Layout WindowLayout `json:"layout"`

		// FocusTimestamp is when the window was most recently focused, from
		// the monotonic clock. Intended for most-recently-used window
		// switchers.
		FocusTimestamp *Timestamp `json:"focus_timestamp"`
	}

	// WindowLayout contains the position and size related properties of a
	// window. Optional fields are unset for some windows (e.g. the scrolling
	// layout position for floating windows). All sizes and positions are in
	// logical pixels; logical sizes may be fractional.
	WindowLayout struct {
		// PosInScrollingLayout is the (column index, tile index in column)
		// location of a tiled window, 1-based.
		PosInScrollingLayout *Vec2[uint32] `json:"pos_in_scrolling_layout"`

		// TileSize is the size of the tile this window is in, including
		// decorations like borders.
		TileSize Vec2[float64] `json:"tile_size"`

		// WindowSize is the size of the window's visual geometry itself,
		// without niri decorations.
		WindowSize Vec2[int32] `json:"window_size"`

		// TilePosInWorkspaceView is the tile position within the current
		// view of the workspace.
		TilePosInWorkspaceView *Vec2[float64] `json:"tile_pos_in_workspace_view"`

		// WindowOffsetInTile is the location of the window's visual geometry
		// within its tile.
		WindowOffsetInTile Vec2[float64] `json:"window_offset_in_tile"`
	}

	// KeyboardLayouts contains the configured keyboard layouts.
	KeyboardLayouts struct {
		// Names are the XKB names of the configured layouts.
		Names []string `json:"names"`

		// CurrentIdx is the index of the active layout in Names.
		CurrentIdx uint8 `json:"current_idx"`
	}

	// Timestamp is a moment in time from the monotonic clock.
	Timestamp struct {
		Secs  uint64 `json:"secs"`
		Nanos uint32 `json:"nanos"`
	}

	// Numeric constrains the component types usable in a Vec2.
	Numeric interface {
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
			~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
			~float32 | ~float64
	}

	// Vec2 is a 2D vector. It marshals to a 2-element JSON array.
	Vec2[T Numeric] struct {
		X T
		Y T
	}

	// WindowLayoutChange is a pair of a window id and that window's new
	// layout. It marshals to a 2-element JSON array.
	WindowLayoutChange struct {
		ID           ID
		WindowLayout WindowLayout
	}
)

func (v Vec2[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]T{v.X, v.Y})
}

func (v *Vec2[T]) UnmarshalJSON(data []byte) error {
	var arr []T
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}

	if len(arr) != 2 {
		return fmt.Errorf("expected array of length 2, got %d", len(arr))
	}

	v.X = arr[0]
	v.Y = arr[1]

	return nil
}

func (c WindowLayoutChange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.ID, c.WindowLayout})
}

func (c *WindowLayoutChange) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}

	if len(arr) != 2 {
		return fmt.Errorf("expected array of length 2, got %d", len(arr))
	}

	if err := json.Unmarshal(arr[0], &c.ID); err != nil {
		return fmt.Errorf("failed to unmarshal window id: %w", err)
	}

	if err := json.Unmarshal(arr[1], &c.WindowLayout); err != nil {
		return fmt.Errorf("failed to unmarshal window layout: %w", err)
	}

	return nil
}
