package location

import (
	"fmt"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/geo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// Build 生成路段目录
// 功能：将锚点目录扩展为指定数量的具体路段
// 参数：anchors-锚点目录，target-路段数量，c-路段配置，rng-随机数引擎
// 返回：长度恰为target的路段列表与错误
// 算法说明：
// 1. 均匀随机选取锚点
// 2. 在[jitter_min, jitter_max]米内均匀选取半径并扰动锚点坐标
// 3. 按权重选取道路类型，从限速菜单中均匀选取限速
// 4. 分配从1开始连续递增的location_id
// 5. 以segment_probability的概率在街道名后追加"(segment N)"
// 说明：城市与通行方向类别直接继承锚点
func Build(anchors []geo.Anchor, target int, c config.Locations, rng *randengine.Engine) ([]entity.Location, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: location count %d", config.ErrInvalidConfig, target)
	}
	if target > 0 && len(anchors) == 0 {
		return nil, fmt.Errorf("%w: no anchors to build %d locations from", config.ErrInvalidConfig, target)
	}
	roadTypes, roadWeights := config.Table(c.RoadTypes)

	locations := make([]entity.Location, 0, target)
	for id := int32(1); len(locations) < target; id++ {
		base := randengine.Choice(rng, anchors)
		lat, lon := geo.Jitter(base.BaseLat, base.BaseLon, rng.Uniform(c.JitterMinMeters, c.JitterMaxMeters), rng)
		roadType := roadTypes[rng.DiscreteDistribution(roadWeights)]
		speedLimit := randengine.Choice(rng, c.SpeedLimits)
		name := base.Name
		if rng.PTrue(c.SegmentProbability) {
			name = fmt.Sprintf("%s (segment %d)", base.Name, id)
		}
		locations = append(locations, entity.Location{
			LocationID: id,
			StreetName: name,
			City:       base.City,
			Lat:        lat,
			Lon:        lon,
			RoadType:   roadType,
			SpeedLimit: speedLimit,
			Movement:   base.Movement,
		})
	}
	log.Infof("built %d locations from %d anchors", len(locations), len(anchors))
	return locations, nil
}
