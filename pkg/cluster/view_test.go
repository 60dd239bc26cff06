package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewRewritesLocalhostAndFindsSelf(t *testing.T) {
	t.Parallel()
	v := NewView(
		[]string{"http://localhost:9000", "http://10.0.0.2:9000", "http://10.0.0.3:9000"},
		"http://localhost:9000",
		"10.0.0.1",
	)

	servers := v.Servers()
	require.Len(t, servers, 3)
	assert.Equal(t, "http://10.0.0.1:9000", servers[0].URL)
	assert.Equal(t, "http://10.0.0.1:9000", v.SelfURL())
	assert.Equal(t, "http://10.0.0.1:9000", v.Self().URL)
}

func TestNewViewSynthesizesSelfWhenNoHostMatches(t *testing.T) {
	t.Parallel()
	v := NewView(
		[]string{"http://10.0.0.2:9000", "http://10.0.0.3:9000"},
		"http://10.0.0.9:9000",
		"10.0.0.9",
	)

	servers := v.Servers()
	assert.Len(t, servers, 3)
	assert.Equal(t, "http://10.0.0.9:9000", v.SelfURL())
}

func TestSetLeaderClearsPrevious(t *testing.T) {
	t.Parallel()
	v := NewView([]string{"http://a:1", "http://b:1"}, "http://a:1", "a")

	v.SetLeader("http://a:1")
	leader, ok := v.Leader()
	require.True(t, ok)
	assert.Equal(t, "http://a:1", leader.URL)

	v.SetLeader("http://b:1")
	leader, ok = v.Leader()
	require.True(t, ok)
	assert.Equal(t, "http://b:1", leader.URL)

	count := 0
	for _, s := range v.Servers() {
		if s.Leader {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSetLeaderEmptyClearsLeader(t *testing.T) {
	t.Parallel()
	v := NewView([]string{"http://a:1"}, "http://a:1", "a")
	v.SetLeader("http://a:1")
	v.SetLeader("")
	_, ok := v.Leader()
	assert.False(t, ok)
}

func TestSetStatusForcesSelfOnline(t *testing.T) {
	t.Parallel()
	v := NewView([]string{"http://a:1", "http://b:1"}, "http://a:1", "a")

	v.SetStatus("http://a:1", false)
	self := v.Self()
	assert.True(t, self.Status)

	v.SetStatus("http://b:1", false)
	b, ok := v.ByURL("http://b:1")
	require.True(t, ok)
	assert.False(t, b.Status)
}

func TestIsLeaderAndLeaderURL(t *testing.T) {
	t.Parallel()
	v := NewView([]string{"http://a:1", "http://b:1"}, "http://a:1", "a")

	assert.False(t, v.IsLeader())
	assert.Equal(t, "", v.LeaderURL())

	v.SetLeader("http://a:1")
	assert.True(t, v.IsLeader())
	assert.Equal(t, "http://a:1", v.LeaderURL())
}

func TestOnlineFiltersByStatus(t *testing.T) {
	t.Parallel()
	v := NewView([]string{"http://a:1", "http://b:1", "http://c:1"}, "http://a:1", "a")
	v.SetStatus("http://b:1", false)

	online := v.Online()
	var urls []string
	for _, s := range online {
		urls = append(urls, s.URL)
	}
	assert.ElementsMatch(t, []string{"http://a:1", "http://c:1"}, urls)
}
