// watcher_test.go - Tests for refresh detection and credential capture.
package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const componentsURL = "https://org.crm.dynamics.com/api/data/v9.2/powerpagecomponents?$filter=x"

// ============================================
// Watcher
// ============================================

func TestWatcherFiresOnSuccessfulReload(t *testing.T) {
	t.Parallel()
	var got []NetworkEvent
	w := NewWatcher("", func(ev NetworkEvent) { got = append(got, ev) }, nil)

	assert.True(t, w.Observe(NetworkEvent{URL: componentsURL, Status: 200}))
	assert.True(t, w.Observe(NetworkEvent{URL: componentsURL, Status: 204}))
	require.Len(t, got, 2)
	assert.Equal(t, 2, w.Fired())
}

func TestWatcherIgnoresFailuresAndOtherURLs(t *testing.T) {
	t.Parallel()
	w := NewWatcher("", func(NetworkEvent) { t.Fatal("unexpected refresh") }, nil)

	assert.False(t, w.Observe(NetworkEvent{URL: componentsURL, Status: 500}))
	assert.False(t, w.Observe(NetworkEvent{URL: componentsURL, Status: 0}))
	assert.False(t, w.Observe(NetworkEvent{URL: "https://org.crm.dynamics.com/api/data/v9.2/solutions", Status: 200}))
	assert.Zero(t, w.Fired())
}

func TestWatcherCustomPatternAndZeroValue(t *testing.T) {
	t.Parallel()
	w := NewWatcher("/tables", nil, nil)
	assert.True(t, w.Observe(NetworkEvent{URL: "https://x/tables?top=1", Status: 200}))

	var zero Watcher
	assert.True(t, zero.Observe(NetworkEvent{URL: componentsURL, Status: 200}))
}

// ============================================
// CredentialStore
// ============================================

func TestCredentialStoreCapturesBearer(t *testing.T) {
	t.Parallel()
	s := NewCredentialStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, ok := s.Credentials()
	assert.False(t, ok)

	changed := s.Capture(NetworkEvent{
		URL:            "https://org.crm.dynamics.com/api/data/v9.2/solutions",
		RequestHeaders: map[string]string{"authorization": "Bearer abc.def"},
	})
	assert.True(t, changed)

	creds, ok := s.Credentials()
	require.True(t, ok)
	assert.Equal(t, "abc.def", creds.Token)
	assert.Equal(t, "https://org.crm.dynamics.com", creds.InstanceURL)
	assert.Equal(t, fixed, creds.CapturedAt)

	assert.False(t, s.Capture(NetworkEvent{
		URL:            "https://org.crm.dynamics.com/api/data/v9.2/other",
		RequestHeaders: map[string]string{"Authorization": "Bearer abc.def"},
	}), "same credentials are not a change")
}

func TestCredentialStoreIgnoresUnrelated(t *testing.T) {
	t.Parallel()
	s := NewCredentialStore()
	assert.False(t, s.Capture(NetworkEvent{
		URL:            "https://cdn.example.com/app.js",
		RequestHeaders: map[string]string{"Authorization": "Bearer x"},
	}))
	assert.False(t, s.Capture(NetworkEvent{URL: "https://org.crm.dynamics.com/api/data/v9.2/x"}))
	assert.False(t, s.Capture(NetworkEvent{
		URL:            "/api/data/v9.2/x",
		RequestHeaders: map[string]string{"Authorization": "Bearer x"},
	}))
	_, ok := s.Credentials()
	assert.False(t, ok)
}

func TestNetworkEventHeaderCaseInsensitive(t *testing.T) {
	t.Parallel()
	ev := NetworkEvent{RequestHeaders: map[string]string{"AUTHORIZATION": "v"}}
	assert.Equal(t, "v", ev.Header("authorization"))
	assert.Equal(t, "", ev.Header("accept"))
}
