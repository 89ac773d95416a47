package geo

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// 每纬度对应的地面距离（米）
const metersPerDegree = 111320.0

// Anchor 街道锚点
// 功能：一条命名街道的基准坐标与通行方向模板，路段由锚点扰动得到
// 说明：构建后不可修改，每个街道名对应唯一一个锚点
type Anchor struct {
	Name     string
	BaseLat  float64
	BaseLon  float64
	City     string
	Movement entity.MovementClass
}

// BuildAnchors 构建锚点目录
// 功能：为街道表中每个街道在坐标范围内随机生成基准坐标
// 参数：streets-街道表，defaultCity-默认城市，box-坐标范围，rng-随机数引擎
// 返回：锚点列表（顺序与街道表一致）与错误
// 说明：街道名重复视为配置错误
func BuildAnchors(streets []config.Street, defaultCity string, box config.BoundingBox, rng *randengine.Engine) ([]Anchor, error) {
	seen := make(map[string]struct{}, len(streets))
	anchors := make([]Anchor, 0, len(streets))
	for _, s := range streets {
		if _, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%w: duplicated street %q", config.ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = struct{}{}
		city := s.City
		if city == "" {
			city = defaultCity
		}
		movement := entity.MovementClass(s.Movement)
		if movement == "" {
			movement = entity.MovementCircular
		}
		anchors = append(anchors, Anchor{
			Name:     s.Name,
			BaseLat:  rng.Uniform(box.MinLat, box.MaxLat),
			BaseLon:  rng.Uniform(box.MinLon, box.MaxLon),
			City:     city,
			Movement: movement,
		})
	}
	log.Debugf("built %d anchors", len(anchors))
	return anchors, nil
}

// Jitter 在给定半径内扰动坐标
// 功能：按米为单位在纬度、经度方向上各自均匀扰动，并保留6位小数
// 参数：lat,lon-原始坐标，meters-扰动半径，rng-随机数引擎
// 返回：扰动后的坐标
// 算法说明：
// 1. dlat = u·r / 111320
// 2. dlon = u·r / (111320·cos(lat))，cos下限取0.1避免高纬度发散
func Jitter(lat, lon, meters float64, rng *randengine.Engine) (float64, float64) {
	dlat := rng.Uniform(-1, 1) * meters / metersPerDegree
	scale := math.Max(0.1, math.Abs(math.Cos(lat*math.Pi/180)))
	dlon := rng.Uniform(-1, 1) * meters / (metersPerDegree * scale)
	return Round6(lat + dlat), Round6(lon + dlon)
}

// Round6 保留6位小数
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
