package niritest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	niri "github.com/niri-tools/niri-go"
	"github.com/niri-tools/niri-go/niritest"
)

func TestReplyPayload(t *testing.T) {
	t.Run("should populate the resolver passed into Request", func(t *testing.T) {
		matcher := niritest.ReplyPayload(t, map[string]interface{}{
			"Workspaces": []niri.Workspace{{ID: 1, IsFocused: true}},
		})

		var workspaces []niri.Workspace
		require.True(t, matcher.Matches(niri.ToWorkspaces(&workspaces)))

		require.Len(t, workspaces, 1)
		assert.Equal(t, niri.ID(1), workspaces[0].ID)
		assert.True(t, workspaces[0].IsFocused)
	})

	t.Run("should not match anything that is not a resolver", func(t *testing.T) {
		matcher := niritest.ReplyPayload(t, map[string]interface{}{})

		assert.False(t, matcher.Matches("Workspaces"))
	})

	t.Run("should describe itself as the payload it carries", func(t *testing.T) {
		matcher := niritest.ReplyPayload(t, map[string]interface{}{"Version": "25.05.1"})

		assert.JSONEq(t, `{"Version":"25.05.1"}`, matcher.String())
	})
}
