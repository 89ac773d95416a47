package event

import (
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

var (
	northSouth    = []entity.Direction{entity.North, entity.South}
	eastWest      = []entity.Direction{entity.East, entity.West}
	allDirections = []entity.Direction{entity.North, entity.South, entity.East, entity.West}
)

// AllowedDirections 路段通行类别允许的行驶方向
// 说明：circular以及未知类别不限方向
func AllowedDirections(movement entity.MovementClass) []entity.Direction {
	switch movement {
	case entity.MovementNorthSouth:
		return northSouth
	case entity.MovementEastWest:
		return eastWest
	default:
		return allDirections
	}
}

// PickDirection 在允许的方向中均匀选取
func PickDirection(movement entity.MovementClass, rng *randengine.Engine) entity.Direction {
	return randengine.Choice(rng, AllowedDirections(movement))
}
