package config

import (
	"path/filepath"
	"time"
)

// Weighted 带权重的类别
// 功能：加权随机表中的一项，表整体按配置顺序保存
type Weighted struct {
	Name   string  `yaml:"name"`   // 类别名
	Weight float64 `yaml:"weight"` // 权重（无需归一化）
}

// Table 将加权表拆成名称与权重两个并列切片，供randengine.DiscreteDistribution使用
func Table(ws []Weighted) (names []string, weights []float64) {
	names = make([]string, len(ws))
	weights = make([]float64, len(ws))
	for i, w := range ws {
		names[i], weights[i] = w.Name, w.Weight
	}
	return
}

// Street 街道锚点模板
// 功能：定义一条命名街道所属的城市与通行方向类别
type Street struct {
	Name     string `yaml:"name"`               // 街道名，需唯一
	City     string `yaml:"city,omitempty"`     // 所属城市，为空则使用default_city
	Movement string `yaml:"movement,omitempty"` // 通行方向类别：north-south/east-west/circular，为空则为circular
}

// BoundingBox 锚点坐标的取值范围（WGS84经纬度）
type BoundingBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Locations 路段生成配置
// 功能：控制路段数量、坐标扰动、道路类型与限速
type Locations struct {
	Count              int         `yaml:"count"`               // 路段总数
	JitterMinMeters    float64     `yaml:"jitter_min_meters"`   // 扰动半径下限（米）
	JitterMaxMeters    float64     `yaml:"jitter_max_meters"`   // 扰动半径上限（米）
	SegmentProbability float64     `yaml:"segment_probability"` // 追加"(segment N)"后缀的概率
	RoadTypes          []Weighted  `yaml:"road_types"`          // 道路类型权重表
	SpeedLimits        []int       `yaml:"speed_limits"`        // 可选限速（km/h）
	BoundingBox        BoundingBox `yaml:"bounding_box"`        // 锚点坐标范围
	DefaultCity        string      `yaml:"default_city"`        // 街道未指定城市时的默认值
	Streets            []Street    `yaml:"streets"`             // 街道表
}

// Sensors 传感器生成配置
type Sensors struct {
	CoverageRatio     float64    `yaml:"coverage_ratio"`      // 覆盖率，取值[0,1]
	Types             []string   `yaml:"types"`               // 传感器类型
	Statuses          []Weighted `yaml:"statuses"`            // 状态权重表
	CoordJitterDegree float64    `yaml:"coord_jitter_degree"` // 相对所在路段的坐标扰动（度）
	InstallYears      int        `yaml:"install_years"`       // 安装日期回溯的年数
}

// Vehicles 车辆与车主生成配置
type Vehicles struct {
	Count           int                 `yaml:"count"`             // 车辆总数
	Types           []Weighted          `yaml:"types"`             // 车型分布
	Models          map[string][]string `yaml:"models"`            // 车型 -> 型号池
	HeavyTypes      []string            `yaml:"heavy_types"`       // 按重型车调整有效限速的车型
	TwoWheelTypes   []string            `yaml:"two_wheel_types"`   // 按两轮车调整有效限速的车型
	Colors          []string            `yaml:"colors"`            // 颜色池
	PlatePattern    string              `yaml:"plate_pattern"`     // 车牌模板：?为字母，#为数字
	PlateMaxRetries int                 `yaml:"plate_max_retries"` // 单个车牌冲突重试上限
}

// Stream 事件流控制配置
// 功能：控制事件总数、节奏、落盘频率、续跑与速度模型版本
type Stream struct {
	TotalEvents int64         `yaml:"total_events"` // 事件总数，<=0表示无限
	Interval    time.Duration `yaml:"interval"`     // 相邻事件之间的等待时间，可为0
	FlushEvery  int           `yaml:"flush_every"`  // 每N个事件刷新一次事件日志
	Resume      bool          `yaml:"resume"`       // 从事件日志恢复event_id并追加写入
	SpeedModel  string        `yaml:"speed_model"`  // 速度模型版本：v1/v2
}

// Output 输出文件配置
type Output struct {
	Dir           string `yaml:"dir"`
	LocationsFile string `yaml:"locations_file"`
	SensorsFile   string `yaml:"sensors_file"`
	VehiclesFile  string `yaml:"vehicles_file"`
	EventsFile    string `yaml:"events_file"`
}

func (o Output) join(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// LocationsPath 路段目录文件的完整路径
func (o Output) LocationsPath() string { return o.join(o.LocationsFile) }

// SensorsPath 传感器目录文件的完整路径
func (o Output) SensorsPath() string { return o.join(o.SensorsFile) }

// VehiclesPath 车辆目录文件的完整路径
func (o Output) VehiclesPath() string { return o.join(o.VehiclesFile) }

// EventsPath 事件日志的完整路径
func (o Output) EventsPath() string { return o.join(o.EventsFile) }

// NATSSink NATS发布配置
type NATSSink struct {
	URL     string        `yaml:"url"`
	Subject string        `yaml:"subject"`
	Name    string        `yaml:"name,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// RedisSink Redis Stream发布配置
type RedisSink struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len,omitempty"` // 近似裁剪长度，0表示不裁剪
}

// MongoSink MongoDB发布配置
type MongoSink struct {
	URI string `yaml:"uri"`
	DB  string `yaml:"db"`
	Col string `yaml:"col"`
}

// GetDb 获取数据库名
func (m MongoSink) GetDb() string { return m.DB }

// GetColl 获取集合名
func (m MongoSink) GetColl() string { return m.Col }

// Publish 外部发布通道配置，均为可选
type Publish struct {
	NATS  *NATSSink  `yaml:"nats,omitempty"`
	Redis *RedisSink `yaml:"redis,omitempty"`
	Mongo *MongoSink `yaml:"mongo,omitempty"`
}

// Metrics 监控指标配置
type Metrics struct {
	Listen string `yaml:"listen,omitempty"` // Prometheus监听地址，为空则不启动
}

// Config YAML配置文件的根结构
// 功能：定义整个数据生成系统的配置结构
// 说明：包含随机种子、三类目录的生成参数、事件流控制、输出与发布
type Config struct {
	Seed      uint64    `yaml:"seed"` // 随机种子，0表示使用当前时间
	Locations Locations `yaml:"locations"`
	Sensors   Sensors   `yaml:"sensors"`
	Vehicles  Vehicles  `yaml:"vehicles"`
	Stream    Stream    `yaml:"stream"`
	Output    Output    `yaml:"output"`
	Publish   Publish   `yaml:"publish"`
	Metrics   Metrics   `yaml:"metrics"`
}
