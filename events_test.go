package niri_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	niri "github.com/niri-tools/niri-go"
)

func TestEvent_UnmarshalJSON(t *testing.T) {
	t.Run("should decode a workspaces snapshot", func(t *testing.T) {
		line := `{"WorkspacesChanged":{"workspaces":[` +
			`{"id":1,"idx":1,"name":"web","output":"eDP-1","is_urgent":false,"is_active":true,"is_focused":true,"active_window_id":10},` +
			`{"id":2,"idx":2,"name":null,"output":"eDP-1","is_urgent":true,"is_active":false,"is_focused":false,"active_window_id":null}]}}`

		var ev niri.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		require.Equal(t, niri.EventTypeWorkspacesChanged, ev.Type)

		payload, ok := ev.Payload.(niri.EventWorkspacesChanged)
		require.True(t, ok)
		require.Len(t, payload.Workspaces, 2)

		first := payload.Workspaces[0]
		assert.Equal(t, niri.ID(1), first.ID)
		assert.Equal(t, uint8(1), first.Index)
		require.NotNil(t, first.Name)
		assert.Equal(t, "web", *first.Name)
		require.NotNil(t, first.ActiveWindowID)
		assert.Equal(t, niri.ID(10), *first.ActiveWindowID)
		assert.True(t, first.IsFocused)

		second := payload.Workspaces[1]
		assert.Nil(t, second.Name)
		assert.Nil(t, second.ActiveWindowID)
		assert.True(t, second.IsUrgent)
	})

	t.Run("should decode a window with its layout", func(t *testing.T) {
		line := `{"WindowOpenedOrChanged":{"window":{` +
			`"id":10,"title":"vim","app_id":"Alacritty","pid":4242,"workspace_id":1,` +
			`"is_focused":true,"is_floating":false,"is_urgent":false,` +
			`"layout":{"pos_in_scrolling_layout":[1,1],"tile_size":[960.5,1048.0],` +
			`"window_size":[952,1040],"tile_pos_in_workspace_view":[8.0,8.0],` +
			`"window_offset_in_tile":[4.0,4.0]},` +
			`"focus_timestamp":{"secs":123,"nanos":456}}}}`

		var ev niri.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		require.Equal(t, niri.EventTypeWindowOpenedOrChanged, ev.Type)

		w := ev.Payload.(niri.EventWindowOpenedOrChanged).Window
		assert.Equal(t, niri.ID(10), w.ID)
		require.NotNil(t, w.PID)
		assert.Equal(t, int32(4242), *w.PID)
		require.NotNil(t, w.WorkspaceID)
		assert.Equal(t, niri.ID(1), *w.WorkspaceID)

		require.NotNil(t, w.Layout.PosInScrollingLayout)
		assert.Equal(t, niri.Vec2[uint32]{X: 1, Y: 1}, *w.Layout.PosInScrollingLayout)
		assert.Equal(t, niri.Vec2[float64]{X: 960.5, Y: 1048.0}, w.Layout.TileSize)
		assert.Equal(t, niri.Vec2[int32]{X: 952, Y: 1040}, w.Layout.WindowSize)

		require.NotNil(t, w.FocusTimestamp)
		assert.Equal(t, uint64(123), w.FocusTimestamp.Secs)
	})

	t.Run("should decode layout changes as id and layout pairs", func(t *testing.T) {
		line := `{"WindowLayoutsChanged":{"changes":[[10,{"pos_in_scrolling_layout":null,` +
			`"tile_size":[100.0,200.0],"window_size":[96,196],"tile_pos_in_workspace_view":null,` +
			`"window_offset_in_tile":[2.0,2.0]}]]}}`

		var ev niri.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))

		changes := ev.Payload.(niri.EventWindowLayoutsChanged).Changes
		require.Len(t, changes, 1)
		assert.Equal(t, niri.ID(10), changes[0].ID)
		assert.Equal(t, niri.Vec2[float64]{X: 100, Y: 200}, changes[0].WindowLayout.TileSize)
		assert.Nil(t, changes[0].WindowLayout.PosInScrollingLayout)
	})

	t.Run("should decode a focus change with a null id", func(t *testing.T) {
		var ev niri.Event
		require.NoError(t, json.Unmarshal([]byte(`{"WindowFocusChanged":{"id":null}}`), &ev))

		assert.Nil(t, ev.Payload.(niri.EventWindowFocusChanged).ID)
	})

	t.Run("should decode the remaining variants", func(t *testing.T) {
		for line, want := range map[string]niri.Event{
			`{"WorkspaceUrgencyChanged":{"id":3,"urgent":true}}`: {
				Type:    niri.EventTypeWorkspaceUrgencyChanged,
				Payload: niri.EventWorkspaceUrgencyChanged{ID: 3, Urgent: true},
			},
			`{"WorkspaceActivated":{"id":2,"focused":true}}`: {
				Type:    niri.EventTypeWorkspaceActivated,
				Payload: niri.EventWorkspaceActivated{ID: 2, Focused: true},
			},
			`{"WindowClosed":{"id":10}}`: {
				Type:    niri.EventTypeWindowClosed,
				Payload: niri.EventWindowClosed{ID: 10},
			},
			`{"KeyboardLayoutsChanged":{"keyboard_layouts":{"names":["us","de"],"current_idx":1}}}`: {
				Type: niri.EventTypeKeyboardLayoutsChanged,
				Payload: niri.EventKeyboardLayoutsChanged{
					KeyboardLayouts: niri.KeyboardLayouts{Names: []string{"us", "de"}, CurrentIdx: 1},
				},
			},
			`{"KeyboardLayoutSwitched":{"idx":1}}`: {
				Type:    niri.EventTypeKeyboardLayoutSwitched,
				Payload: niri.EventKeyboardLayoutSwitched{Idx: 1},
			},
			`{"OverviewOpenedOrClosed":{"is_open":true}}`: {
				Type:    niri.EventTypeOverviewOpenedOrClosed,
				Payload: niri.EventOverviewOpenedOrClosed{IsOpen: true},
			},
			`{"ConfigLoaded":{"failed":false}}`: {
				Type:    niri.EventTypeConfigLoaded,
				Payload: niri.EventConfigLoaded{Failed: false},
			},
			`{"ScreenshotCaptured":{"path":null}}`: {
				Type:    niri.EventTypeScreenshotCaptured,
				Payload: niri.EventScreenshotCaptured{},
			},
		} {
			var ev niri.Event
			require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
			assert.Equal(t, want, ev, line)
		}
	})

	t.Run("should fail on an unknown variant without panicking", func(t *testing.T) {
		var ev niri.Event
		err := json.Unmarshal([]byte(`{"SomethingNew":{"answer":42}}`), &ev)
		require.Error(t, err)
	})
}

func TestEvent_MarshalJSON(t *testing.T) {
	t.Run("should round-trip every replicable variant through the wire form", func(t *testing.T) {
		events := []niri.Event{
			{Type: niri.EventTypeWorkspacesChanged, Payload: niri.EventWorkspacesChanged{
				Workspaces: []niri.Workspace{{ID: 1, Output: strPtr("eDP-1"), IsActive: true}},
			}},
			{Type: niri.EventTypeWindowsChanged, Payload: niri.EventWindowsChanged{
				Windows: []niri.Window{{ID: 10, Title: strPtr("vim"), IsFocused: true}},
			}},
			{Type: niri.EventTypeKeyboardLayoutsChanged, Payload: niri.EventKeyboardLayoutsChanged{
				KeyboardLayouts: niri.KeyboardLayouts{Names: []string{"us"}, CurrentIdx: 0},
			}},
			{Type: niri.EventTypeOverviewOpenedOrClosed, Payload: niri.EventOverviewOpenedOrClosed{IsOpen: true}},
			{Type: niri.EventTypeConfigLoaded, Payload: niri.EventConfigLoaded{Failed: true}},
		}

		for _, want := range events {
			data, err := json.Marshal(want)
			require.NoError(t, err)

			var got niri.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, want, got)
		}
	})
}
