package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"golang.org/x/sync/errgroup"
)

// WriteJSON 以缩进JSON格式原子写入文件
// 算法说明：先写入同目录下的临时文件，关闭后rename覆盖目标文件，
// 读者要么看到旧文件，要么看到完整的新文件
func WriteJSON(path string, v any) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// SaveCatalogs 并行保存路段、传感器、车辆三个目录文件
func SaveCatalogs(out config.Output, locations []entity.Location, sensors []entity.Sensor, vehicles []entity.Vehicle) error {
	var g errgroup.Group
	g.Go(func() error { return WriteJSON(out.LocationsPath(), locations) })
	g.Go(func() error { return WriteJSON(out.SensorsPath(), sensors) })
	g.Go(func() error { return WriteJSON(out.VehiclesPath(), vehicles) })
	if err := g.Wait(); err != nil {
		return err
	}
	log.Infof("saved %d locations, %d sensors, %d vehicles to %s", len(locations), len(sensors), len(vehicles), out.Dir)
	return nil
}
