package event

import (
	"errors"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/clock"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// ErrNoActiveSensors 没有工作中的传感器，事件流无法继续
var ErrNoActiveSensors = errors.New("no active sensors")

// Synthesizer 事件合成器
// 功能：基于冻结的路段、传感器、车辆目录逐条合成检测事件
// 说明：单线程使用；事件ID严格递增，从构造时给出的lastID之后开始
type Synthesizer struct {
	locations entity.ILocationManager
	sensors   entity.ISensorManager
	vehicles  entity.IVehicleManager

	speed   SpeedModel
	classes VehicleClasses
	rng     *randengine.Engine
	clock *clock.Clock

	lastID int64
}

// NewSynthesizer 创建事件合成器
// 参数：locations/sensors/vehicles-已初始化的目录管理器，speed-车速模型，rng-随机数引擎，
// clk-提供时间戳的时钟，lastID-已写出的最后一个事件ID（新运行为0，续跑时由恢复读取器给出）
func NewSynthesizer(
	locations entity.ILocationManager,
	sensors entity.ISensorManager,
	vehicles entity.IVehicleManager,
	speed SpeedModel,
	rng *randengine.Engine,
	clk *clock.Clock,
	lastID int64,
) *Synthesizer {
	return &Synthesizer{
		locations: locations,
		sensors:   sensors,
		vehicles:  vehicles,
		speed:     speed,
		classes:   DefaultVehicleClasses,
		rng:       rng,
		clock:     clk,
		lastID:    lastID,
	}
}

// WithVehicleClasses 替换车型分类表，默认为DefaultVehicleClasses
func (s *Synthesizer) WithVehicleClasses(vc VehicleClasses) *Synthesizer {
	s.classes = vc
	return s
}

// LastID 最后一个已合成事件的ID
func (s *Synthesizer) LastID() int64 {
	return s.lastID
}

// Next 合成下一条事件
// 算法说明：
// 1. 从工作中传感器中均匀选取一个，没有则返回ErrNoActiveSensors
// 2. 按传感器的location_id找到所在路段，找不到时随机选一个路段并告警
// 3. 均匀选取车辆，车主以车牌->车主映射为准
// 4. 生成车速与方向，分配下一个事件ID，组装事件快照
func (s *Synthesizer) Next() (entity.Event, error) {
	active := s.sensors.Active()
	if len(active) == 0 {
		return entity.Event{}, ErrNoActiveSensors
	}
	sensor := randengine.Choice(s.rng, active)

	loc, err := s.locations.GetOrError(sensor.LocationID)
	if err != nil {
		loc = s.locations.Random(s.rng)
		log.Warnf("sensor %s references missing location %d, fall back to location %d",
			sensor.SensorID, sensor.LocationID, loc.LocationID)
	}

	v := s.vehicles.Random(s.rng)
	owner, ok := s.vehicles.OwnerOf(v.PlateNumber)
	if !ok {
		owner = v.OwnerID
		log.Warnf("plate %s has no owner mapping, use vehicle record owner", v.PlateNumber)
	}

	speed := s.speed.Speed(loc.SpeedLimit, s.classes.Of(v.VehicleType), s.rng)
	direction := PickDirection(loc.Movement, s.rng)

	s.lastID++
	return entity.Event{
		EventID:   s.lastID,
		Timestamp: s.clock.Timestamp(),

		SensorID:        sensor.SensorID,
		SensorNumericID: sensor.NumericID,
		SensorLat:       sensor.Lat,
		SensorLon:       sensor.Lon,

		PlateNumber: v.PlateNumber,
		OwnerID:     owner,
		VehicleType: v.VehicleType,
		Model:       v.Model,
		Color:       v.Color,

		Speed:     speed,
		Direction: direction,

		LocationID:   loc.LocationID,
		LocationName: loc.StreetName,
		LocationLat:  loc.Lat,
		LocationLon:  loc.Lon,
		RoadType:     loc.RoadType,
		Movement:     loc.Movement,
		City:         loc.City,
		SpeedLimit:   loc.SpeedLimit,
	}, nil
}
