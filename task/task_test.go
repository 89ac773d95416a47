package task_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/task"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
)

func testConfig(t *testing.T) config.Config {
	c := config.Default()
	c.Seed = 20250301
	c.Locations.Count = 80
	c.Vehicles.Count = 60
	c.Stream.TotalEvents = 50
	c.Stream.Interval = 0
	c.Stream.FlushEvery = 7
	c.Output.Dir = t.TempDir()
	require.NoError(t, c.Validate())
	return c
}

func readEvents(t *testing.T, path string) []entity.Event {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var events []entity.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var ev entity.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

type recordingPublisher struct {
	payloads [][]byte
	fail     bool
	closed   bool
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	if p.fail {
		return errors.New("sink down")
	}
	p.payloads = append(p.payloads, append([]byte(nil), payload...))
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestBuildSaveAndReferentialIntegrity(t *testing.T) {
	c := testConfig(t)
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())
	require.NoError(t, ctx.Save())

	assert.Equal(t, 80, ctx.LocationManager().Len())
	assert.Equal(t, 44, ctx.SensorManager().Len()) // floor(80*0.55)
	assert.Equal(t, 60, ctx.VehicleManager().Len())
	for _, s := range ctx.SensorManager().All() {
		_, err := ctx.LocationManager().GetOrError(s.LocationID)
		assert.NoError(t, err)
	}

	in, err := input.LoadCatalogs(c.Output)
	require.NoError(t, err)
	assert.Equal(t, ctx.LocationManager().All(), in.Locations)
	assert.Equal(t, ctx.SensorManager().All(), in.Sensors)
	assert.Equal(t, ctx.VehicleManager().All(), in.Vehicles)
}

func TestRunFixedTotal(t *testing.T) {
	c := testConfig(t)
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())
	pub := &recordingPublisher{}
	ctx.AddPublishers(pub)

	res, err := ctx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.ReasonCompleted, res.Reason)
	assert.Equal(t, int64(50), res.Emitted)
	assert.Equal(t, int64(50), res.LastEventID)
	assert.True(t, pub.closed)
	assert.Len(t, pub.payloads, 50)

	events := readEvents(t, c.Output.EventsPath())
	require.Len(t, events, 50)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.EventID)
		s, err := ctx.SensorManager().GetOrError(ev.SensorID)
		require.NoError(t, err)
		assert.True(t, s.IsActive())
		assert.Equal(t, s.LocationID, ev.LocationID)
		owner, ok := ctx.VehicleManager().OwnerOf(ev.PlateNumber)
		require.True(t, ok)
		assert.Equal(t, owner, ev.OwnerID)
		assert.Positive(t, ev.Speed)
		switch ev.Movement {
		case entity.MovementNorthSouth:
			assert.Contains(t, []entity.Direction{entity.North, entity.South}, ev.Direction)
		case entity.MovementEastWest:
			assert.Contains(t, []entity.Direction{entity.East, entity.West}, ev.Direction)
		}
	}
	var first entity.Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &first))
	assert.Equal(t, events[0], first)
}

func TestRunResumeContinuesIDs(t *testing.T) {
	c := testConfig(t)
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())
	require.NoError(t, ctx.Save())
	_, err := ctx.Run(context.Background())
	require.NoError(t, err)

	// 模拟崩溃：最后一行被截断
	f, err := os.OpenFile(c.Output.EventsPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"event_id":51,"sens`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	c.Stream.Resume = true
	c.Stream.TotalEvents = 20
	in, err := input.LoadCatalogs(c.Output)
	require.NoError(t, err)
	resumed := task.NewContext(c)
	resumed.Load(in)
	res, err := resumed.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Emitted)
	assert.Equal(t, int64(70), res.LastEventID)

	last, err := input.RecoverLastEventID(c.Output.EventsPath())
	require.NoError(t, err)
	assert.Equal(t, int64(70), last)

	data, err := os.ReadFile(c.Output.EventsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\"event_id\":51,\"sens\n{\"event_id\":51,")
}

func TestRunPublishFailureDoesNotStop(t *testing.T) {
	c := testConfig(t)
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())
	ctx.AddPublishers(&recordingPublisher{fail: true})

	res, err := ctx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.ReasonCompleted, res.Reason)
	assert.Len(t, readEvents(t, c.Output.EventsPath()), 50)
}

func TestRunInterrupted(t *testing.T) {
	c := testConfig(t)
	c.Stream.TotalEvents = 0
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())

	stop, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := ctx.Run(stop)
	require.NoError(t, err)
	assert.Equal(t, task.ReasonInterrupted, res.Reason)
	assert.Zero(t, res.Emitted)
}

func TestRunNoActiveSensors(t *testing.T) {
	c := testConfig(t)
	c.Sensors.Statuses = []config.Weighted{{Name: entity.SensorInactive, Weight: 1}}
	ctx := task.NewContext(c)
	require.NoError(t, ctx.Build())

	res, err := ctx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.ReasonNoActiveSensors, res.Reason)
	assert.Zero(t, res.Emitted)
	assert.Empty(t, readEvents(t, c.Output.EventsPath()))
}
