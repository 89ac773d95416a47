package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/output"
)

func TestEventLogFreshRunTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "events.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"event_id":9}`+"\n"), 0o644))

	l, err := output.OpenEventLog(path, 100, false)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())
	require.NoError(t, l.Append([]byte(`{"event_id":1}`)))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"event_id":1}`+"\n", string(data))
}

func TestEventLogFlushCadence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	l, err := output.OpenEventLog(path, 2, false)
	require.NoError(t, err)

	require.NoError(t, l.Append([]byte(`{"event_id":1}`)))
	data, _ := os.ReadFile(path)
	assert.Empty(t, data)

	require.NoError(t, l.Append([]byte(`{"event_id":2}`)))
	data, _ = os.ReadFile(path)
	assert.Equal(t, "{\"event_id\":1}\n{\"event_id\":2}\n", string(data))

	require.NoError(t, l.Append([]byte(`{"event_id":3}`)))
	require.NoError(t, l.Close())
	data, _ = os.ReadFile(path)
	assert.Equal(t, "{\"event_id\":1}\n{\"event_id\":2}\n{\"event_id\":3}\n", string(data))
}

func TestEventLogResumeTerminatesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"event_id\":1}\n{\"event_id\":2,\"sen"), 0o644))

	l, err := output.OpenEventLog(path, 1, true)
	require.NoError(t, err)
	require.NoError(t, l.Append([]byte(`{"event_id":2}`)))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"event_id\":1}\n{\"event_id\":2,\"sen\n{\"event_id\":2}\n", string(data))
}

func TestEventLogResumeAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"event_id\":1}\n"), 0o644))

	l, err := output.OpenEventLog(path, 1, true)
	require.NoError(t, err)
	require.NoError(t, l.Append([]byte(`{"event_id":2}`)))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"event_id\":1}\n{\"event_id\":2}\n", string(data))
}
