package entity

import (
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/clock"
)

// ITaskContext 任务上下文接口
// 说明：task.Context的依赖倒置，命令行等外围组件只通过它访问冻结后的目录
type ITaskContext interface {
	Clock() *clock.Clock
	Seed() uint64
	LocationManager() ILocationManager
	SensorManager() ISensorManager
	VehicleManager() IVehicleManager
}
