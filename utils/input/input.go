package input

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"golang.org/x/sync/errgroup"
)

// Input 已保存的目录数据
// 功能：续跑时重新载入上一次生成的路段、传感器、车辆目录，使新事件仍引用同一组实体
type Input struct {
	Locations []entity.Location
	Sensors   []entity.Sensor
	Vehicles  []entity.Vehicle
}

// LoadCatalogs 载入三个目录文件
// 参数：out-输出配置，给出三个目录文件的路径
// 返回：载入完成的目录数据或错误
// 算法说明：
// 1. 三个文件并行读取并解析
// 2. 校验传感器引用的路段都存在，不存在时只告警（合成事件时会回退到随机路段）
func LoadCatalogs(out config.Output) (*Input, error) {
	res := &Input{}
	var g errgroup.Group
	g.Go(func() error { return loadJSON(out.LocationsPath(), &res.Locations) })
	g.Go(func() error { return loadJSON(out.SensorsPath(), &res.Sensors) })
	g.Go(func() error { return loadJSON(out.VehiclesPath(), &res.Vehicles) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make(map[int32]struct{}, len(res.Locations))
	for _, l := range res.Locations {
		ids[l.LocationID] = struct{}{}
	}
	dangling := 0
	for _, s := range res.Sensors {
		if _, ok := ids[s.LocationID]; !ok {
			dangling++
		}
	}
	if dangling > 0 {
		log.Warnf("%d sensors reference missing locations", dangling)
	}
	log.Infof("loaded %d locations, %d sensors, %d vehicles from %s",
		len(res.Locations), len(res.Sensors), len(res.Vehicles), out.Dir)
	return res, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return nil
}
