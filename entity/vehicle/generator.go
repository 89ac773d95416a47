package vehicle

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

// ErrPlateNamespaceExhausted 车牌空间耗尽：重试上限内无法得到未使用的车牌
var ErrPlateNamespaceExhausted = errors.New("plate namespace exhausted")

// AllocateCounts 按车型分布分配各车型数量
// 功能：四舍五入后逐个车型循环加减，直到总数恰好等于total
// 参数：types-车型分布，total-车辆总数
// 返回：与types一一对应的数量
// 算法说明：
// 1. 每个车型数量为round(p*total)，p为归一化后的概率
// 2. 从第一个车型开始循环：总数不足则加一，总数超出且当前车型数量大于0则减一
func AllocateCounts(types []config.Weighted, total int) []int {
	counts := make([]int, len(types))
	if len(types) == 0 || total <= 0 {
		return counts
	}
	_, weights := config.Table(types)
	sumW := 0.
	for _, w := range weights {
		sumW += w
	}
	s := 0
	for i, w := range weights {
		counts[i] = int(math.Round(w / sumW * float64(total)))
		s += counts[i]
	}
	for i := 0; s != total; i++ {
		j := i % len(counts)
		if s < total {
			counts[j]++
			s++
		} else if counts[j] > 0 {
			counts[j]--
			s--
		}
	}
	return counts
}

// plateNamespace 车牌模板可表示的车牌数量，超过int上限时返回math.MaxInt
func plateNamespace(pattern string) int {
	n := 1.
	for _, r := range pattern {
		switch r {
		case '?':
			n *= 26
		case '#':
			n *= 10
		}
	}
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// plateGenerator 保证唯一性的车牌生成器
type plateGenerator struct {
	faker      *gofakeit.Faker
	pattern    string
	maxRetries int
	seen       map[string]struct{}
}

// next 生成一个未使用过的车牌，冲突时重试，超过重试上限返回ErrPlateNamespaceExhausted
func (g *plateGenerator) next() (string, error) {
	for r, n := 0, g.maxRetries; r < n; r++ {
		plate := strings.ToUpper(g.faker.Numerify(g.faker.Lexify(g.pattern)))
		if _, ok := g.seen[plate]; ok {
			continue
		}
		g.seen[plate] = struct{}{}
		return plate, nil
	}
	return "", fmt.Errorf("%w: pattern %q, %d plates issued, %d retries", ErrPlateNamespaceExhausted, g.pattern, len(g.seen), g.maxRetries)
}

// Build 生成车辆与车主
// 功能：按车型分布生成total辆车，每辆车配一个新车主标识
// 参数：total-车辆总数，c-车辆配置，rng-随机数引擎
// 返回：打乱顺序后的车辆列表与错误
// 算法说明：
// 1. AllocateCounts分配各车型数量
// 2. 逐车型生成：唯一车牌（有界重试）、UUID车主、车型对应型号池中均匀选型号、均匀选颜色
// 3. 整体洗牌，避免车主-车牌与生成顺序相关
// 说明：total超过车牌模板容量时直接失败，不进入重试
func Build(total int, c config.Vehicles, rng *randengine.Engine) ([]entity.Vehicle, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: vehicle count %d", config.ErrInvalidConfig, total)
	}
	if len(c.Types) == 0 || len(c.Colors) == 0 {
		return nil, fmt.Errorf("%w: vehicle types and colors must not be empty", config.ErrInvalidConfig)
	}
	if ns := plateNamespace(c.PlatePattern); total > ns {
		return nil, fmt.Errorf("%w: %d vehicles requested but pattern %q has only %d plates", ErrPlateNamespaceExhausted, total, c.PlatePattern, ns)
	}
	maxRetries := c.PlateMaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	plates := &plateGenerator{
		faker:      gofakeit.New(rng.Int63()),
		pattern:    c.PlatePattern,
		maxRetries: maxRetries,
		seen:       make(map[string]struct{}, total),
	}
	fallback := c.Models[c.Types[0].Name]

	counts := AllocateCounts(c.Types, total)
	vehicles := make([]entity.Vehicle, 0, total)
	for i, t := range c.Types {
		pool := c.Models[t.Name]
		if len(pool) == 0 {
			pool = fallback
		}
		if counts[i] > 0 && len(pool) == 0 {
			return nil, fmt.Errorf("%w: no model pool for %q", config.ErrInvalidConfig, t.Name)
		}
		for j, n := 0, counts[i]; j < n; j++ {
			plate, err := plates.next()
			if err != nil {
				return nil, err
			}
			owner, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, fmt.Errorf("owner id: %w", err)
			}
			vehicles = append(vehicles, entity.Vehicle{
				OwnerID:     owner.String(),
				PlateNumber: plate,
				VehicleType: t.Name,
				Model:       randengine.Choice(rng, pool),
				Color:       randengine.Choice(rng, c.Colors),
			})
		}
	}
	rng.Shuffle(len(vehicles), func(i, j int) {
		vehicles[i], vehicles[j] = vehicles[j], vehicles[i]
	})
	log.Infof("built %d vehicles, per type %v", len(vehicles), counts)
	return vehicles, nil
}
