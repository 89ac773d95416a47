package sensor

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/geo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/randengine"
)

const maxSlugLen = 60

// Slugify 将街道名转为传感器ID片段
// 功能：非字母数字字符的连续段替换为单个下划线，去除首尾下划线并截断长度
func Slugify(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
		} else if !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	slug := []rune(strings.Trim(b.String(), "_"))
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return string(slug)
}

// ID 构造传感器ID：<类型>_<街道slug>_<4位序号>
func ID(sensorType, streetName string, seq int) string {
	return fmt.Sprintf("%s_%s_%04d", sensorType, Slugify(streetName), seq)
}

// Build 生成传感器目录
// 功能：按覆盖率无放回地抽取路段并在其上安装传感器
// 参数：locations-路段目录，ratio-覆盖率，c-传感器配置，now-安装日期的参考时刻，rng-随机数引擎
// 返回：长度为floor(len(locations)*ratio)的传感器列表与错误
// 算法说明：
// 1. 校验覆盖率在[0,1]内，否则返回配置错误
// 2. 均匀无放回抽样，抽样顺序即numeric_id顺序
// 3. 状态按权重选取，类型均匀选取，安装日期在过去install_years年内均匀选取
// 4. sensor_id由类型、街道slug与序号拼接，序号唯一故ID唯一
func Build(locations []entity.Location, ratio float64, c config.Sensors, now time.Time, rng *randengine.Engine) ([]entity.Sensor, error) {
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: coverage ratio %v not in [0,1]", config.ErrInvalidConfig, ratio)
	}
	if len(locations) == 0 {
		return []entity.Sensor{}, nil
	}
	if len(c.Types) == 0 {
		return nil, fmt.Errorf("%w: no sensor types", config.ErrInvalidConfig)
	}
	statuses, statusWeights := config.Table(c.Statuses)
	faker := gofakeit.New(rng.Int63())
	earliest := now.AddDate(-c.InstallYears, 0, 0)

	target := int(float64(len(locations)) * ratio)
	picked := rng.Sample(len(locations), target)
	sensors := make([]entity.Sensor, 0, len(picked))
	for i, idx := range picked {
		loc := locations[idx]
		kind := randengine.Choice(rng, c.Types)
		status := statuses[rng.DiscreteDistribution(statusWeights)]
		seq := i + 1
		sensors = append(sensors, entity.Sensor{
			SensorID:    ID(kind, loc.StreetName, seq),
			NumericID:   int32(seq),
			Lat:         geo.Round6(loc.Lat + rng.Uniform(-c.CoordJitterDegree, c.CoordJitterDegree)),
			Lon:         geo.Round6(loc.Lon + rng.Uniform(-c.CoordJitterDegree, c.CoordJitterDegree)),
			LocationID:  loc.LocationID,
			InstallDate: faker.DateRange(earliest, now).Format(time.DateOnly),
			Status:      status,
			SensorType:  kind,
		})
	}
	log.Infof("built %d sensors over %d locations (coverage %.2f)", len(sensors), len(locations), ratio)
	return sensors, nil
}
