package entity

import "fmt"

// MovementClass 通行方向类别
// 功能：约束经过某路段的车辆可取的行驶方向
type MovementClass string

const (
	MovementNorthSouth MovementClass = "north-south" // 南北向通行
	MovementEastWest   MovementClass = "east-west"   // 东西向通行
	MovementCircular   MovementClass = "circular"    // 不限方向（环路、广场等）
)

// Direction 行驶方向
type Direction string

const (
	North Direction = "N"
	South Direction = "S"
	East  Direction = "E"
	West  Direction = "W"
)

// 传感器状态
const (
	SensorActive           = "Active"
	SensorInactive         = "Inactive"
	SensorUnderMaintenance = "Under Maintenance"
)

// Location 路段
// 功能：由街道锚点扰动生成的具体路段，是传感器与事件的空间参照
// 说明：LocationID从1开始连续编号；City与Movement继承自锚点
type Location struct {
	LocationID int32         `json:"location_id"`
	StreetName string        `json:"street_name"`
	City       string        `json:"city"`
	Lat        float64       `json:"lat"`
	Lon        float64       `json:"lon"`
	RoadType   string        `json:"road_type"`
	SpeedLimit int           `json:"speed_limit"`
	Movement   MovementClass `json:"movement_class"`
}

func (l Location) String() string {
	return fmt.Sprintf("Location{ID=%d, Street=%s, City=%s, RoadType=%s, SpeedLimit=%d}", l.LocationID, l.StreetName, l.City, l.RoadType, l.SpeedLimit)
}

// Sensor 传感器
// 功能：安装在某一路段上的检测设备，事件由传感器产生
// 说明：LocationID必须指向已存在的路段，一个路段最多一个传感器
type Sensor struct {
	SensorID    string  `json:"sensor_id"`
	NumericID   int32   `json:"numeric_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	LocationID  int32   `json:"location_id"`
	InstallDate string  `json:"install_date"`
	Status      string  `json:"status"`
	SensorType  string  `json:"sensor_type"`
}

// IsActive 传感器是否处于工作状态
func (s Sensor) IsActive() bool {
	return s.Status == SensorActive
}

// Vehicle 车辆（含车主标识）
// 说明：OwnerID与车辆一一对应，不单独建车主表
type Vehicle struct {
	OwnerID     string `json:"owner_id"`
	PlateNumber string `json:"plate_number"`
	VehicleType string `json:"vehicle_type"`
	Model       string `json:"model"`
	Color       string `json:"color"`
}

// Event 检测事件
// 功能：一次传感器检测记录，包含事件发生时刻传感器、路段、车辆的快照
// 说明：事件一经产生不再修改，只追加写入
type Event struct {
	EventID   int64  `json:"event_id"`
	Timestamp string `json:"timestamp"`

	SensorID        string  `json:"sensor_id"`
	SensorNumericID int32   `json:"sensor_numeric_id"`
	SensorLat       float64 `json:"sensor_lat"`
	SensorLon       float64 `json:"sensor_lon"`

	PlateNumber string `json:"plate_number"`
	OwnerID     string `json:"owner_id"`
	VehicleType string `json:"vehicle_type"`
	Model       string `json:"model"`
	Color       string `json:"color"`

	Speed     int       `json:"speed"`
	Direction Direction `json:"direction"`

	LocationID   int32         `json:"location_id"`
	LocationName string        `json:"location_name"`
	LocationLat  float64       `json:"location_lat"`
	LocationLon  float64       `json:"location_lon"`
	RoadType     string        `json:"road_type"`
	Movement     MovementClass `json:"movement_class"`
	City         string        `json:"city"`
	SpeedLimit   int           `json:"speed_limit"`
}
