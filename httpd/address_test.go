package httpd

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress(" backend.local:8080 ")
	require.NoError(t, err)
	require.Equal(t, Address{Host: "backend.local", Port: 8080}, a)
	require.Equal(t, "backend.local:8080", a.String())

	a, err = ParseAddress("/run/app.sock:0:unix")
	require.NoError(t, err)
	require.True(t, a.IsUnix())
	require.Equal(t, "/run/app.sock:0:unix", a.String())

	for _, bad := range []string{"", "host", ":80", "host:x", "host:70000"} {
		_, err := ParseAddress(bad)
		require.Error(t, err, bad)
	}
}

func TestParseAddressList(t *testing.T) {
	list, err := ParseAddressList("a:1, b:2:tcp,,c:3")
	require.NoError(t, err)
	require.Equal(t, []Address{{Host: "a", Port: 1}, {Host: "b", Port: 2, Type: "tcp"}, {Host: "c", Port: 3}}, list)
	require.Equal(t, "a:1, b:2:tcp, c:3", FormatAddressList(list))

	_, err = ParseAddressList("a:1,b")
	require.Error(t, err)
}

func TestAddress_Ordering(t *testing.T) {
	list := []Address{
		{Host: "b", Port: 1},
		{Host: "a", Port: 2, Type: "x"},
		{Host: "a", Port: 2},
		{Host: "a", Port: 1},
	}
	slices.SortFunc(list, Address.Compare)
	require.Equal(t, []Address{
		{Host: "a", Port: 1},
		{Host: "a", Port: 2},
		{Host: "a", Port: 2, Type: "x"},
		{Host: "b", Port: 1},
	}, list)
	require.True(t, list[0].Less(list[1]))
	require.False(t, list[1].Less(list[1]))

	m := map[Address]int{{Host: "a", Port: 1}: 1}
	require.Equal(t, 1, m[Address{Host: "a", Port: 1}])
}
