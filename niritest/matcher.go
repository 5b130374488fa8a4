package niritest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	niri "github.com/niri-tools/niri-go"
)

// This is a helper for when working with gomock.
// Example usage:
//
// mockClient.EXPECT().
// 	Request(niri.RequestWorkspaces, niritest.ReplyPayload(t, map[string]interface{}{"Workspaces": workspaces})).
// 	Return(nil)
//
// Whatever you pass into the second argument, will be the value the mock will use to populate the pointer in the code.

type Matcher struct {
	t   *testing.T
	res interface{}
}

// ReplyPayload sets the mocked Ok payload to be fed into the Request
// method's passed in resolver.
func ReplyPayload(t *testing.T, res interface{}) *Matcher {
	return &Matcher{
		t:   t,
		res: res,
	}
}

func (m *Matcher) String() string {
	bb, err := json.Marshal(m.res)
	require.NoError(m.t, err)

	return string(bb)
}

func (m *Matcher) Matches(x interface{}) bool {
	resolver, ok := x.(niri.ReplyResolver)
	if !ok {
		return false
	}

	bb, err := json.Marshal(m.res)
	require.NoError(m.t, err)

	// Running this populates the variable passed into it by reference.
	err = resolver(bb)
	require.NoError(m.t, err)

	return true
}
