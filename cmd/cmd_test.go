package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
)

func writeConfig(t *testing.T, dir string) string {
	return writeSeededConfig(t, dir, 7)
}

func writeSeededConfig(t *testing.T, dir string, seed uint64) string {
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf(`seed: %d
locations:
  count: 30
vehicles:
  count: 20
stream:
  total_events: 10
  interval: 0s
output:
  dir: %s
`, seed, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath, configData, seedOverride = "", "", 0
		for _, name := range []string{"yes", "reuse", "resume", "total", "interval", "speed-model"} {
			f := runCmd.Flags().Lookup(name)
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "catalog", "last-event-id", "config"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("rand.seed_offset"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log.heartbeat_interval"))
}

func TestConfigRoundTrip(t *testing.T) {
	out, err := execute(t, "", "config", "--seed", "99")
	require.NoError(t, err)
	c, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), c.Seed)
	assert.Equal(t, config.Default().Locations.Streets, c.Locations.Streets)
}

func TestRunAbortedByOperator(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	out, err := execute(t, "n\n", "run", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")
	_, err = os.Stat(filepath.Join(dir, "data", "locations.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunThenResume(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	events := filepath.Join(dir, "data", "events.json")

	out, err := execute(t, "y\nyes\n", "run", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalogs saved")
	assert.Contains(t, out, "emitted 10 events")
	id, err := input.RecoverLastEventID(events)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	_, err = execute(t, "", "run", "--config", cfg, "--yes", "--reuse", "--resume", "--total", "5")
	require.NoError(t, err)
	id, err = input.RecoverLastEventID(events)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	out, err = execute(t, "", "last-event-id", events)
	require.NoError(t, err)
	assert.Equal(t, "15\n", out)
}

func outputOf(dir string) config.Output {
	return config.Output{
		Dir:           filepath.Join(dir, "data"),
		LocationsFile: "locations.json",
		SensorsFile:   "sensors.json",
		VehiclesFile:  "vehicles.json",
	}
}

func TestResumeKeepsCatalogs(t *testing.T) {
	dir := t.TempDir()
	// seed 0 is time based, so a rebuild would yield different plates
	cfg := writeSeededConfig(t, dir, 0)
	events := filepath.Join(dir, "data", "events.json")

	_, err := execute(t, "", "run", "--config", cfg, "--yes")
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, "data", "vehicles.json"))
	require.NoError(t, err)

	out, err := execute(t, "", "run", "--config", cfg, "--yes", "--resume", "--total", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Reloaded catalogs")
	assert.NotContains(t, out, "Catalogs saved")
	after, err := os.ReadFile(filepath.Join(dir, "data", "vehicles.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	saved, err := input.LoadCatalogs(outputOf(dir))
	require.NoError(t, err)
	plates := map[string]bool{}
	for _, v := range saved.Vehicles {
		plates[v.PlateNumber] = true
	}
	data, err := os.ReadFile(events)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 15)
	for i, line := range lines {
		var ev entity.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, int64(i+1), ev.EventID)
		assert.True(t, plates[ev.PlateNumber], "plate %s of event %d not in vehicle catalog", ev.PlateNumber, ev.EventID)
	}
}

func TestResumeWithoutCatalogs(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	_, err := execute(t, "", "run", "--config", cfg, "--yes", "--resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume needs the catalogs")
	_, err = os.Stat(filepath.Join(dir, "data", "events.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	out, err := execute(t, "", "catalog", "--config", cfg, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalogs saved")
	assert.NotContains(t, out, "Locations (")

	in, err := input.LoadCatalogs(outputOf(dir))
	require.NoError(t, err)
	assert.Len(t, in.Locations, 30)
	assert.Len(t, in.Sensors, 16)
	assert.Len(t, in.Vehicles, 20)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "", "config", "--log.level", "loud")
	assert.Error(t, err)
	rootCmd.PersistentFlags().Set("log.level", "info")
}
