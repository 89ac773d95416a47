package event

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/clock"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/location"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/sensor"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

func fixedClock() *clock.Clock {
	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return clock.NewWithSource(0, func() time.Time { return t0 })
}

func TestDirectionRespectsMovementClass(t *testing.T) {
	rng := randengine.New(1)
	for i := 0; i < 500; i++ {
		assert.Contains(t, []entity.Direction{entity.North, entity.South}, PickDirection(entity.MovementNorthSouth, rng))
		assert.Contains(t, []entity.Direction{entity.East, entity.West}, PickDirection(entity.MovementEastWest, rng))
	}
	seen := map[entity.Direction]bool{}
	for i := 0; i < 500; i++ {
		seen[PickDirection(entity.MovementCircular, rng)] = true
		seen[PickDirection("", rng)] = true
	}
	assert.Len(t, seen, 4)
}

func TestNewSpeedModel(t *testing.T) {
	m, err := NewSpeedModel("")
	require.NoError(t, err)
	assert.Equal(t, "v1", m.Version())
	m, err = NewSpeedModel("v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", m.Version())
	_, err = NewSpeedModel("v3")
	assert.Error(t, err)
}

func TestSpeedV1Distribution(t *testing.T) {
	rng := randengine.New(7)
	const n = 20000
	speeds := lo.Times(n, func(int) int { return SpeedV1.Speed(60, ClassLight, rng) })

	for _, s := range speeds {
		assert.GreaterOrEqual(t, s, 1)
		assert.LessOrEqual(t, s, 120)
	}
	near := lo.CountBy(speeds, func(s int) bool { return s >= 51 && s <= 69 })
	assert.Greater(t, float64(near)/n, 0.70)
	assert.Greater(t, lo.CountBy(speeds, func(s int) bool { return s > 69 }), 0)
	assert.Greater(t, lo.CountBy(speeds, func(s int) bool { return s < 51 }), 0)
}

func TestSpeedV2NoOutliers(t *testing.T) {
	rng := randengine.New(8)
	for i := 0; i < 20000; i++ {
		s := SpeedV2.Speed(60, ClassLight, rng)
		assert.GreaterOrEqual(t, s, 30)
		assert.LessOrEqual(t, s, 84)
	}
}

func TestEffectiveLimit(t *testing.T) {
	rng := randengine.New(9)
	v1 := SpeedV1.(*speedPolicy)
	vc := DefaultVehicleClasses
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 30, v1.EffectiveLimit(20, vc.Of("Truck"), rng))
		heavy := v1.EffectiveLimit(100, vc.Of("Bus"), rng)
		assert.GreaterOrEqual(t, heavy, 80)
		assert.LessOrEqual(t, heavy, 100)
		moto := v1.EffectiveLimit(100, vc.Of("Motorcycle"), rng)
		assert.GreaterOrEqual(t, moto, 90)
		assert.LessOrEqual(t, moto, 115)
		assert.Equal(t, 50, v1.EffectiveLimit(50, vc.Of("Van"), rng))
	}
	assert.Equal(t, 60, v1.EffectiveLimit(0, vc.Of("Car"), rng))
}

func TestVehicleClassesFromConfig(t *testing.T) {
	vc := NewVehicleClasses([]string{"Tractor", "Truck"}, []string{"Scooter"})
	assert.Equal(t, ClassHeavy, vc.Of("Tractor"))
	assert.Equal(t, ClassTwoWheel, vc.Of("Scooter"))
	assert.Equal(t, ClassLight, vc.Of("Bus"))
	assert.Equal(t, ClassLight, vc.Of("Car"))

	rng := randengine.New(10)
	for i := 0; i < 200; i++ {
		assert.Equal(t, 30, SpeedV1.(*speedPolicy).EffectiveLimit(20, vc.Of("Tractor"), rng))
	}
}

type fixture struct {
	locations *location.LocationManager
	sensors   *sensor.SensorManager
	vehicles  *vehicle.VehicleManager
}

func newFixture() fixture {
	f := fixture{
		locations: location.NewManager(),
		sensors:   sensor.NewManager(),
		vehicles:  vehicle.NewManager(),
	}
	f.locations.Init([]entity.Location{
		{LocationID: 1, StreetName: "Tahrir Street", City: "Cairo", Lat: 30.04, Lon: 31.23, RoadType: "Urban", SpeedLimit: 60, Movement: entity.MovementEastWest},
		{LocationID: 2, StreetName: "Corniche El Nil", City: "Cairo", Lat: 30.05, Lon: 31.22, RoadType: "Highway", SpeedLimit: 90, Movement: entity.MovementNorthSouth},
	})
	f.sensors.Init([]entity.Sensor{
		{SensorID: "Radar_tahrir_street_0001", NumericID: 1, LocationID: 1, Status: entity.SensorActive, SensorType: "Radar"},
		{SensorID: "CCTV_corniche_el_nil_0002", NumericID: 2, LocationID: 2, Status: entity.SensorInactive, SensorType: "CCTV"},
	})
	f.vehicles.Init([]entity.Vehicle{
		{OwnerID: "owner-1", PlateNumber: "ABC-1234", VehicleType: "Car", Model: "Toyota Corolla", Color: "White"},
	})
	return f
}

func TestSynthesizerEventSnapshot(t *testing.T) {
	f := newFixture()
	s := NewSynthesizer(f.locations, f.sensors, f.vehicles, SpeedV1, randengine.New(1), fixedClock(), 0)

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.EventID)
	assert.Equal(t, "2025-01-02T03:04:05.000000Z", ev.Timestamp)
	// 只有一个工作中的传感器
	assert.Equal(t, "Radar_tahrir_street_0001", ev.SensorID)
	assert.Equal(t, int32(1), ev.LocationID)
	assert.Equal(t, "Tahrir Street", ev.LocationName)
	assert.Equal(t, "Cairo", ev.City)
	assert.Equal(t, 60, ev.SpeedLimit)
	assert.Equal(t, entity.MovementEastWest, ev.Movement)
	assert.Contains(t, []entity.Direction{entity.East, entity.West}, ev.Direction)
	assert.Equal(t, "owner-1", ev.OwnerID)
	assert.Equal(t, "ABC-1234", ev.PlateNumber)
	assert.Positive(t, ev.Speed)
}

func TestSynthesizerIDsContinueFromLast(t *testing.T) {
	f := newFixture()
	const k, m = 41, 25
	s := NewSynthesizer(f.locations, f.sensors, f.vehicles, SpeedV2, randengine.New(2), fixedClock(), k)
	for i := int64(1); i <= m; i++ {
		ev, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, k+i, ev.EventID)
	}
	assert.Equal(t, int64(k+m), s.LastID())
}

func TestSynthesizerNoActiveSensors(t *testing.T) {
	f := newFixture()
	f.sensors.Init([]entity.Sensor{{SensorID: "x", LocationID: 1, Status: entity.SensorUnderMaintenance}})
	s := NewSynthesizer(f.locations, f.sensors, f.vehicles, SpeedV1, randengine.New(3), fixedClock(), 5)
	_, err := s.Next()
	assert.ErrorIs(t, err, ErrNoActiveSensors)
	assert.Equal(t, int64(5), s.LastID())
}

func TestSynthesizerFallsBackOnMissingLocation(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	f := newFixture()
	f.sensors.Init([]entity.Sensor{{SensorID: "orphan", LocationID: 99, Status: entity.SensorActive}})
	s := NewSynthesizer(f.locations, f.sensors, f.vehicles, SpeedV1, randengine.New(4), fixedClock(), 0)
	ev, err := s.Next()
	require.NoError(t, err)
	assert.Contains(t, []int32{1, 2}, ev.LocationID)

	warned := lo.ContainsBy(hook.AllEntries(), func(e *logrus.Entry) bool {
		return e.Level == logrus.WarnLevel && e.Data["module"] == "event"
	})
	assert.True(t, warned)
}

// ownerMap 车主映射与车辆记录不一致的车辆管理器
type ownerMap struct {
	*vehicle.VehicleManager
	owners map[string]string
}

func (m ownerMap) OwnerOf(plate string) (string, bool) {
	o, ok := m.owners[plate]
	return o, ok
}

func TestSynthesizerOwnerFromMap(t *testing.T) {
	f := newFixture()
	vm := ownerMap{VehicleManager: f.vehicles, owners: map[string]string{"ABC-1234": "mapped-owner"}}
	s := NewSynthesizer(f.locations, f.sensors, vm, SpeedV1, randengine.New(5), fixedClock(), 0)
	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "mapped-owner", ev.OwnerID)

	hook := test.NewGlobal()
	defer hook.Reset()
	vm.owners = map[string]string{}
	s = NewSynthesizer(f.locations, f.sensors, vm, SpeedV1, randengine.New(5), fixedClock(), 0)
	ev, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "owner-1", ev.OwnerID)
	assert.NotEmpty(t, hook.AllEntries())
}
