package event

import (
	"fmt"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

const defaultSpeedSL = 60 // 限速缺失（<=0）时使用的限速

// VehicleClass 计算有效限速时的车型分类
type VehicleClass int

const (
	ClassLight    VehicleClass = iota // 按路段限速行驶
	ClassHeavy                        // 重型车，有效限速下调且有下限
	ClassTwoWheel                     // 两轮车，有效限速可能上浮
)

// VehicleClasses 车型名 -> 分类，未列出的车型为ClassLight
type VehicleClasses map[string]VehicleClass

// DefaultVehicleClasses 默认车型表的分类
var DefaultVehicleClasses = NewVehicleClasses([]string{"Truck", "Bus"}, []string{"Motorcycle"})

// NewVehicleClasses 由配置中的重型车与两轮车列表构造分类表
func NewVehicleClasses(heavy, twoWheel []string) VehicleClasses {
	vc := make(VehicleClasses, len(heavy)+len(twoWheel))
	for _, t := range heavy {
		vc[t] = ClassHeavy
	}
	for _, t := range twoWheel {
		vc[t] = ClassTwoWheel
	}
	return vc
}

// Of 车型所属分类
func (vc VehicleClasses) Of(vehicleType string) VehicleClass {
	return vc[vehicleType]
}

// SpeedModel 车速模型
// 功能：根据路段限速与车型分类生成一次检测的车速（km/h，正整数）
type SpeedModel interface {
	Version() string
	Speed(speedLimit int, class VehicleClass, rng *randengine.Engine) int
}

// speedPolicy 分段车速模型参数
// 说明：一次采样先确定有效限速，再按概率落入贴近限速、超速、低速、离群四个区间之一
type speedPolicy struct {
	version string

	heavyLo, heavyHi       float64 // 重型车有效限速系数范围
	heavyFloor             int     // 重型车有效限速下限
	twoWheelLo, twoWheelHi float64 // 两轮车有效限速系数范围

	nearP      float64 // 贴近限速的概率
	nearJitter float64 // 贴近限速时的相对扰动上限

	highP          float64 // 超速概率
	highLo, highHi float64 // 超速幅度范围（相对有效限速）

	lowP         float64 // 低速概率
	lowLo, lowHi float64 // 低速幅度范围（相对有效限速）

	// 剩余概率为离群值：[1, max(5, sl_eff+outlierSpan)]内均匀取整
	outlierSpan int
}

// SpeedV1 与原始模拟器一致的车速模型
//
//	有效限速：重型车 max(30, sl·U(0.80,1.00))；两轮车 sl·U(0.90,1.15)
//	0.75 贴近限速 ±12%
//	0.12 超速 +U(0.12,0.30)，0.08 低速 −U(0.12,0.30)（即0.20的违规中6:4分配）
//	0.05 离群 [1, max(5, sl_eff+60)]
var SpeedV1 SpeedModel = &speedPolicy{
	version: "v1",
	heavyLo: 0.80, heavyHi: 1.00, heavyFloor: 30,
	twoWheelLo: 0.90, twoWheelHi: 1.15,
	nearP: 0.75, nearJitter: 0.12,
	highP: 0.12, highLo: 0.12, highHi: 0.30,
	lowP: 0.08, lowLo: 0.12, lowHi: 0.30,
	outlierSpan: 60,
}

// SpeedV2 第二版车速模型，违规尾部更重、无离群值
//
//	有效限速：重型车 max(30, sl·U(0.75,0.95))；两轮车 sl·U(1.00,1.15)
//	0.60 贴近限速 ±10%
//	0.25 超速 +U(0.10,0.40)
//	0.15 低速 −U(0.10,0.50)
var SpeedV2 SpeedModel = &speedPolicy{
	version: "v2",
	heavyLo: 0.75, heavyHi: 0.95, heavyFloor: 30,
	twoWheelLo: 1.00, twoWheelHi: 1.15,
	nearP: 0.60, nearJitter: 0.10,
	highP: 0.25, highLo: 0.10, highHi: 0.40,
	lowP: 0.15, lowLo: 0.10, lowHi: 0.50,
}

// NewSpeedModel 按版本名获取车速模型
func NewSpeedModel(version string) (SpeedModel, error) {
	switch version {
	case "", "v1":
		return SpeedV1, nil
	case "v2":
		return SpeedV2, nil
	default:
		return nil, fmt.Errorf("unknown speed model %q", version)
	}
}

func (p *speedPolicy) Version() string {
	return p.version
}

// EffectiveLimit 按车型调整后的有效限速
func (p *speedPolicy) EffectiveLimit(speedLimit int, class VehicleClass, rng *randengine.Engine) int {
	if speedLimit <= 0 {
		speedLimit = defaultSpeedSL
	}
	switch class {
	case ClassHeavy:
		return max(p.heavyFloor, int(float64(speedLimit)*rng.Uniform(p.heavyLo, p.heavyHi)))
	case ClassTwoWheel:
		return int(float64(speedLimit) * rng.Uniform(p.twoWheelLo, p.twoWheelHi))
	default:
		return speedLimit
	}
}

// Speed 生成车速
// 算法说明：
// 1. 计算有效限速sl_eff
// 2. 取r∈[0,1)：依次落入贴近限速、超速、低速区间，否则为离群值
// 3. 结果向下取整，最小为1
func (p *speedPolicy) Speed(speedLimit int, class VehicleClass, rng *randengine.Engine) int {
	sl := float64(p.EffectiveLimit(speedLimit, class, rng))
	r := rng.Float64()
	var speed float64
	switch {
	case r < p.nearP:
		speed = sl * (1 + rng.Uniform(-p.nearJitter, p.nearJitter))
	case r < p.nearP+p.highP:
		speed = sl * (1 + rng.Uniform(p.highLo, p.highHi))
	case r < p.nearP+p.highP+p.lowP:
		speed = sl * (1 - rng.Uniform(p.lowLo, p.lowHi))
	default:
		speed = float64(rng.IntRange(1, max(5, int(sl)+p.outlierSpan)))
	}
	return max(1, int(speed))
}
