package vehicle

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// VehicleManager Vehicle管理器
// 功能：持有冻结后的车队目录，以及只读的车牌->车主映射
// 说明：事件中的车主以映射为准，车辆记录中的owner_id仅作为建表来源
type VehicleManager struct {
	vehicles     []entity.Vehicle
	plateToOwner map[string]string
}

func NewManager() *VehicleManager {
	return &VehicleManager{
		vehicles:     make([]entity.Vehicle, 0),
		plateToOwner: make(map[string]string),
	}
}

// Init 初始化车队并建立车牌->车主映射
func (m *VehicleManager) Init(vehicles []entity.Vehicle) {
	m.vehicles = vehicles
	m.plateToOwner = lo.SliceToMap(vehicles, func(v entity.Vehicle) (string, string) {
		return v.PlateNumber, v.OwnerID
	})
	if len(m.plateToOwner) != len(vehicles) {
		log.Warnf("vehicle catalog has %d duplicated plates, later records win", len(vehicles)-len(m.plateToOwner))
	}
}

// OwnerOf 根据车牌查车主
func (m *VehicleManager) OwnerOf(plate string) (string, bool) {
	owner, ok := m.plateToOwner[plate]
	return owner, ok
}

// Random 均匀随机选取一辆车，目录为空时panic
func (m *VehicleManager) Random(rng *randengine.Engine) entity.Vehicle {
	if len(m.vehicles) == 0 {
		log.Panic("random vehicle from empty catalog")
	}
	return randengine.Choice(rng, m.vehicles)
}

func (m *VehicleManager) All() []entity.Vehicle {
	return m.vehicles
}

func (m *VehicleManager) Len() int {
	return len(m.vehicles)
}
