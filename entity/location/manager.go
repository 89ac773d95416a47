package location

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// LocationManager Location管理器
// 功能：持有冻结后的路段目录，提供按ID查找与随机选取
// 说明：Init之后只读，可在合成器中无锁共享
type LocationManager struct {
	data      map[int32]int // location_id -> locations下标
	locations []entity.Location
}

// NewManager 创建Location管理器实例
func NewManager() *LocationManager {
	return &LocationManager{
		data:      make(map[int32]int),
		locations: make([]entity.Location, 0),
	}
}

// Init 初始化所有Location
// 功能：保存路段目录并建立ID到下标的映射
// 参数：locations-路段目录
func (m *LocationManager) Init(locations []entity.Location) {
	m.locations = locations
	m.data = lo.SliceToMap(lo.Range(len(locations)), func(i int) (int32, int) {
		return locations[i].LocationID, i
	})
	if len(m.data) != len(locations) {
		log.Warnf("location catalog has %d duplicated ids", len(locations)-len(m.data))
	}
}

// Get 根据ID获取Location
// 功能：通过Location ID查找对应的路段，如果不存在则panic
func (m *LocationManager) Get(id int32) entity.Location {
	if i, ok := m.data[id]; !ok {
		log.Panicf("no id %d in location data", id)
		return entity.Location{}
	} else {
		return m.locations[i]
	}
}

// GetOrError 根据ID获取Location（带错误处理）
// 功能：通过Location ID查找对应的路段，如果不存在则返回错误
func (m *LocationManager) GetOrError(id int32) (entity.Location, error) {
	if i, ok := m.data[id]; !ok {
		return entity.Location{}, fmt.Errorf("no id %d in location data", id)
	} else {
		return m.locations[i], nil
	}
}

// Random 均匀随机选取一个Location，目录为空时panic
func (m *LocationManager) Random(rng *randengine.Engine) entity.Location {
	if len(m.locations) == 0 {
		log.Panic("random location from empty catalog")
	}
	return randengine.Choice(rng, m.locations)
}

func (m *LocationManager) All() []entity.Location {
	return m.locations
}

func (m *LocationManager) Len() int {
	return len(m.locations)
}
