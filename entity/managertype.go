package entity

import "github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"

// Manager依赖倒置

// entity/location/manager.go的依赖倒置
type ILocationManager interface {
	Init(locations []Location) // 初始化

	// 输入Location ID，查找Location，如果不存在则panic
	Get(id int32) Location
	// 输入Location ID，查找Location，如果不存在则返回error
	GetOrError(id int32) (Location, error)
	// 均匀随机选取一个Location
	Random(rng *randengine.Engine) Location

	All() []Location // 全部Location（只读）
	Len() int
}

// entity/sensor/manager.go的依赖倒置
type ISensorManager interface {
	Init(sensors []Sensor) // 初始化

	// 输入Sensor ID，查找Sensor，如果不存在则返回error
	GetOrError(id string) (Sensor, error)
	// 所有状态为Active的Sensor
	Active() []Sensor

	All() []Sensor // 全部Sensor（只读）
	Len() int
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	Init(vehicles []Vehicle) // 初始化

	// 根据车牌查车主，车牌->车主映射在Init时一次性建立
	OwnerOf(plate string) (string, bool)
	// 均匀随机选取一辆车
	Random(rng *randengine.Engine) Vehicle

	All() []Vehicle // 全部Vehicle（只读）
	Len() int
}
