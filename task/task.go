package task

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/clock"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/geo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/location"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/sensor"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/output"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/metrics"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// Context 数据生成任务上下文
// 功能：包含一次生成任务的所有变量和状态，替代全局变量
// 说明：管理随机数引擎、时钟、三个目录管理器与发布通道；目录在Build或Load之后冻结
type Context struct {
	// 配置
	config config.Config
	// 实际使用的随机种子
	seed uint64
	// 关闭指令
	closed atomic.Bool

	// 随机数引擎，生成器与事件合成器共用
	rng *randengine.Engine
	// 时钟
	clock *clock.Clock

	// Location管理器
	locationManager entity.ILocationManager
	// Sensor管理器
	sensorManager entity.ISensorManager
	// Vehicle管理器
	vehicleManager entity.IVehicleManager

	// 事件发布通道
	publishers []output.Publisher
}

// NewContext 创建新的任务上下文
// 功能：根据配置创建随机数引擎、时钟与各目录管理器
// 参数：c-已通过校验的配置
// 返回：创建完成的Context实例
// 说明：配置中的种子为0时使用当前时间作为种子，并在日志中给出以便复现
func NewContext(c config.Config) *Context {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		log.Infof("seed not set, using %d", seed)
	}
	return &Context{
		config:          c,
		seed:            seed,
		rng:             randengine.New(seed),
		clock:           clock.New(c.Stream.Interval),
		locationManager: location.NewManager(),
		sensorManager:   sensor.NewManager(),
		vehicleManager:  vehicle.NewManager(),
	}
}

func (ctx *Context) Config() config.Config {
	return ctx.config
}

func (ctx *Context) Seed() uint64 {
	return ctx.seed
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) LocationManager() entity.ILocationManager {
	return ctx.locationManager
}

func (ctx *Context) SensorManager() entity.ISensorManager {
	return ctx.sensorManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

// Build 生成三个目录
// 算法说明：
// 1. 由街道表生成锚点
// 2. 锚点扰动生成路段
// 3. 在路段中无放回抽样安装传感器
// 4. 独立生成车队
// 5. 初始化各管理器，此后目录只读
func (ctx *Context) Build() error {
	c := ctx.config
	anchors, err := geo.BuildAnchors(c.Locations.Streets, c.Locations.DefaultCity, c.Locations.BoundingBox, ctx.rng)
	if err != nil {
		return fmt.Errorf("build anchors: %w", err)
	}
	locations, err := location.Build(anchors, c.Locations.Count, c.Locations, ctx.rng)
	if err != nil {
		return fmt.Errorf("build locations: %w", err)
	}
	sensors, err := sensor.Build(locations, c.Sensors.CoverageRatio, c.Sensors, ctx.clock.Now(), ctx.rng)
	if err != nil {
		return fmt.Errorf("build sensors: %w", err)
	}
	vehicles, err := vehicle.Build(c.Vehicles.Count, c.Vehicles, ctx.rng)
	if err != nil {
		return fmt.Errorf("build vehicles: %w", err)
	}
	log.Infof("Anchor: %v", len(anchors))
	ctx.init(locations, sensors, vehicles)
	return nil
}

// Load 使用已保存的目录初始化各管理器
func (ctx *Context) Load(in *input.Input) {
	ctx.init(in.Locations, in.Sensors, in.Vehicles)
}

func (ctx *Context) init(locations []entity.Location, sensors []entity.Sensor, vehicles []entity.Vehicle) {
	log.Infof("Location: %v", len(locations))
	log.Infof("Sensor: %v", len(sensors))
	log.Infof("Vehicle: %v", len(vehicles))

	ctx.locationManager.Init(locations)
	ctx.sensorManager.Init(sensors)
	ctx.vehicleManager.Init(vehicles)

	metrics.CatalogSize.WithLabelValues("locations").Set(float64(len(locations)))
	metrics.CatalogSize.WithLabelValues("sensors").Set(float64(len(sensors)))
	metrics.CatalogSize.WithLabelValues("vehicles").Set(float64(len(vehicles)))
}

// Save 保存三个目录文件
func (ctx *Context) Save() error {
	return output.SaveCatalogs(
		ctx.config.Output,
		ctx.locationManager.All(),
		ctx.sensorManager.All(),
		ctx.vehicleManager.All(),
	)
}

// AddPublishers 注册事件发布通道，Run结束时统一关闭
func (ctx *Context) AddPublishers(pubs ...output.Publisher) {
	ctx.publishers = append(ctx.publishers, pubs...)
}

// Close 关闭所有发布通道，可重复调用
func (ctx *Context) Close() {
	if ctx.closed.Swap(true) {
		return
	}
	output.ClosePublishers(ctx.publishers)
}

var _ entity.ITaskContext = (*Context)(nil)
