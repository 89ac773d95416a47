package sensor

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
)

// SensorManager Sensor管理器
// 功能：持有冻结后的传感器目录，提供按ID查找与工作中传感器列表
type SensorManager struct {
	data    map[string]entity.Sensor
	sensors []entity.Sensor
	active  []entity.Sensor // 状态为Active的传感器，Init时计算一次
}

func NewManager() *SensorManager {
	return &SensorManager{
		data:    make(map[string]entity.Sensor),
		sensors: make([]entity.Sensor, 0),
		active:  make([]entity.Sensor, 0),
	}
}

// Init 初始化所有Sensor
// 说明：目录冻结后状态不再变化，因此工作中传感器列表只需计算一次
func (m *SensorManager) Init(sensors []entity.Sensor) {
	m.sensors = sensors
	m.data = lo.SliceToMap(sensors, func(s entity.Sensor) (string, entity.Sensor) {
		return s.SensorID, s
	})
	m.active = lo.Filter(sensors, func(s entity.Sensor, _ int) bool {
		return s.IsActive()
	})
	log.Infof("sensor catalog: %d total, %d active", len(m.sensors), len(m.active))
}

func (m *SensorManager) GetOrError(id string) (entity.Sensor, error) {
	if s, ok := m.data[id]; !ok {
		return entity.Sensor{}, fmt.Errorf("no id %s in sensor data", id)
	} else {
		return s, nil
	}
}

func (m *SensorManager) Active() []entity.Sensor {
	return m.active
}

func (m *SensorManager) All() []entity.Sensor {
	return m.sensors
}

func (m *SensorManager) Len() int {
	return len(m.sensors)
}
