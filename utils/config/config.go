package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig 配置错误，生成开始前即失败，不会产生部分目录
var ErrInvalidConfig = errors.New("invalid config")

var movementClasses = map[string]struct{}{
	"north-south": {},
	"east-west":   {},
	"circular":    {},
}

// Default 默认配置
// 功能：返回与原始模拟器常量一致的完整配置
// 返回：可直接通过Validate的配置对象
func Default() Config {
	return Config{
		Locations: Locations{
			Count:              1000,
			JitterMinMeters:    30,
			JitterMaxMeters:    1000,
			SegmentProbability: 0.35,
			RoadTypes: []Weighted{
				{Name: "Highway", Weight: 0.20},
				{Name: "Main Road", Weight: 0.30},
				{Name: "Intersection", Weight: 0.25},
				{Name: "Bridge", Weight: 0.10},
				{Name: "Urban Road", Weight: 0.15},
			},
			SpeedLimits: []int{40, 50, 60, 70, 80, 100},
			BoundingBox: BoundingBox{MinLat: 29.75, MaxLat: 30.20, MinLon: 31.0, MaxLon: 31.55},
			DefaultCity: "Cairo",
			Streets:     defaultStreets(),
		},
		Sensors: Sensors{
			CoverageRatio: 0.55,
			Types:         []string{"CCTV", "Radar", "TrafficCounter", "MultiSensor"},
			Statuses: []Weighted{
				{Name: "Active", Weight: 0.8},
				{Name: "Inactive", Weight: 0.1},
				{Name: "Under Maintenance", Weight: 0.1},
			},
			CoordJitterDegree: 0.0009,
			InstallYears:      5,
		},
		Vehicles: Vehicles{
			Count: 2000,
			Types: []Weighted{
				{Name: "Car", Weight: 0.65},
				{Name: "Truck", Weight: 0.10},
				{Name: "Van", Weight: 0.10},
				{Name: "Motorcycle", Weight: 0.10},
				{Name: "Bus", Weight: 0.05},
			},
			Models: map[string][]string{
				"Car": {
					"Toyota Corolla", "Hyundai Elantra", "Kia Cerato", "Nissan Sunny", "Renault Logan",
					"Mitsubishi Lancer", "Chevrolet Optra", "Peugeot 301", "Honda Civic", "Skoda Octavia",
					"BMW 320i", "Mercedes C180", "MG 5", "Chery Arrizo 5", "BYD F3", "Suzuki Swift",
					"Fiat Tipo", "Seat Ibiza", "Citroen C4", "Volkswagen Passat", "Opel Astra", "Ford Focus",
					"Audi A4", "Mazda 3",
				},
				"Truck": {
					"Volvo FH16", "Mercedes Actros", "MAN TGS", "Scania R-Series", "Isuzu FVZ",
					"Sinotruk Howo", "DFAC Cargo", "Iveco Stralis",
				},
				"Van": {
					"Ford Transit", "Mercedes Sprinter", "Renault Master", "Nissan Urvan", "Peugeot Boxer", "Fiat Ducato",
				},
				"Motorcycle": {
					"Yamaha YBR", "Honda CG125", "Honda CBR500R", "Kawasaki Ninja 400", "Bajaj Pulsar", "TVS Apache", "Suzuki GSX",
				},
				"Bus": {
					"Mercedes Citaro", "Volvo 9700", "MAN Lion's City", "Scania Interlink", "Isuzu City Bus", "King Long",
				},
			},
			HeavyTypes:      []string{"Truck", "Bus"},
			TwoWheelTypes:   []string{"Motorcycle"},
			Colors:          []string{"White", "Black", "Silver", "Gray", "Red", "Blue", "Green", "Yellow", "Brown", "Orange"},
			PlatePattern:    "???-####",
			PlateMaxRetries: 1000,
		},
		Stream: Stream{
			TotalEvents: 100_000,
			Interval:    1500 * time.Millisecond,
			FlushEvery:  100,
			SpeedModel:  "v1",
		},
		Output: Output{
			Dir:           "data",
			LocationsFile: "locations.json",
			SensorsFile:   "sensors.json",
			VehiclesFile:  "vehicles.json",
			EventsFile:    "events.json",
		},
	}
}

func defaultStreets() []Street {
	return []Street{
		{Name: "Salah Salem", City: "Cairo", Movement: "north-south"},
		{Name: "Nasr City", City: "Cairo", Movement: "circular"},
		{Name: "Ring Road", City: "Cairo", Movement: "circular"},
		{Name: "6th October Bridge", City: "Giza", Movement: "east-west"},
		{Name: "Corniche El Nil", City: "Cairo", Movement: "north-south"},
		{Name: "Tahrir", City: "Cairo", Movement: "east-west"},
		{Name: "Al Haram", City: "Giza", Movement: "east-west"},
		{Name: "El Nasr Road", City: "Cairo", Movement: "north-south"},
		{Name: "26 July", City: "Giza", Movement: "east-west"},
		{Name: "El Teseen", City: "Cairo", Movement: "north-south"},
		{Name: "El Geish", City: "Cairo", Movement: "east-west"},
		{Name: "El Thawra", City: "Cairo", Movement: "east-west"},
		{Name: "El Mokattam", City: "Cairo", Movement: "circular"},
		{Name: "Ramses", City: "Cairo", Movement: "north-south"},
		{Name: "Dokki", City: "Giza", Movement: "circular"},
		{Name: "Moustafa Kamel", City: "Cairo", Movement: "north-south"},
		{Name: "Kamel Ibrahim", City: "Cairo", Movement: "east-west"},
		{Name: "El Tayaran", City: "Cairo", Movement: "north-south"},
		{Name: "El Maadi Corniche", City: "Cairo", Movement: "north-south"},
		{Name: "Abbass Al Akkad", City: "Cairo", Movement: "north-south"},
		{Name: "El Omraniya", City: "Giza", Movement: "circular"},
		{Name: "Gamaat El Dowal", City: "Cairo", Movement: "east-west"},
		{Name: "El Orouba", City: "Cairo", Movement: "north-south"},
		{Name: "Abdel Aziz Fahmy", City: "Cairo", Movement: "north-south"},
		{Name: "Wahat Road", City: "New Cairo", Movement: "east-west"},
		{Name: "Sheikh Zayed Road", City: "6th October", Movement: "east-west"},
		{Name: "October Corridor", City: "6th October", Movement: "east-west"},
		{Name: "El Shorouk Road", City: "New Cairo", Movement: "east-west"},
		{Name: "El Sakkakini", City: "Cairo", Movement: "circular"},
		{Name: "El Marg", City: "Cairo", Movement: "north-south"},
		{Name: "El Nozha", City: "Cairo", Movement: "north-south"},
		{Name: "Heliopolis Avenue", City: "Cairo", Movement: "circular"},
		{Name: "Masr El Gedida", City: "Cairo", Movement: "circular"},
		{Name: "Sayeda Zeinab", City: "Cairo", Movement: "circular"},
		{Name: "Giza Corniche", City: "Giza", Movement: "north-south"},
		{Name: "Mohandessin", City: "Giza", Movement: "circular"},
		{Name: "El Qahera Street", City: "Cairo", Movement: "east-west"},
		{Name: "Smart Village Road", City: "6th October", Movement: "east-west"},
		{Name: "Al Rehab Road", City: "New Cairo", Movement: "circular"},
		{Name: "El Obour Road", City: "Cairo", Movement: "north-south"},
		{Name: "Al Amiriya Road", City: "Cairo", Movement: "north-south"},
	}
}

// Load 从YAML文件加载配置
// 功能：在默认配置的基础上覆盖文件中给出的字段，并完成校验
// 参数：path-配置文件路径
// 返回：配置对象与错误
// 说明：使用严格模式解析，未知字段视为错误；models按车型合并
func Load(path string) (Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file load err: %w", err)
	}
	return Parse(file)
}

// Parse 解析YAML内容并校验
// 说明：严格模式下yaml.v2拒绝向已有键的map写入，因此models先置空再解析，
// 文件未提及的车型再补回默认型号池
func Parse(data []byte) (Config, error) {
	c := Default()
	defaultModels := c.Vehicles.Models
	c.Vehicles.Models = nil
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("config parse err: %w", err)
	}
	if c.Vehicles.Models == nil {
		c.Vehicles.Models = make(map[string][]string, len(defaultModels))
	}
	for vtype, pool := range defaultModels {
		if _, ok := c.Vehicles.Models[vtype]; !ok {
			c.Vehicles.Models[vtype] = pool
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// validateWeights 检查加权表：非空、名称唯一、权重非负且总和为正
func validateWeights(field string, ws []Weighted) error {
	if len(ws) == 0 {
		return invalid("%s is empty", field)
	}
	if dup := lo.FindDuplicatesBy(ws, func(w Weighted) string { return w.Name }); len(dup) > 0 {
		return invalid("%s has duplicated name %q", field, dup[0].Name)
	}
	sum := 0.
	for _, w := range ws {
		if w.Name == "" {
			return invalid("%s has an empty name", field)
		}
		if w.Weight < 0 {
			return invalid("%s weight of %q is negative", field, w.Name)
		}
		sum += w.Weight
	}
	if sum <= 0 {
		return invalid("%s weights sum to zero", field)
	}
	return nil
}

// Validate 校验配置
// 功能：检查所有计数、比例、权重表与候选池，任何问题都在生成开始前报告
// 返回：第一个发现的错误（包装ErrInvalidConfig）
func (c *Config) Validate() error {
	l := c.Locations
	if l.Count < 0 {
		return invalid("locations.count must be >= 0, got %d", l.Count)
	}
	if l.JitterMinMeters < 0 || l.JitterMaxMeters < l.JitterMinMeters {
		return invalid("locations jitter range [%v, %v] is not valid", l.JitterMinMeters, l.JitterMaxMeters)
	}
	if l.SegmentProbability < 0 || l.SegmentProbability > 1 {
		return invalid("locations.segment_probability must be in [0,1], got %v", l.SegmentProbability)
	}
	if err := validateWeights("locations.road_types", l.RoadTypes); err != nil {
		return err
	}
	if len(l.SpeedLimits) == 0 {
		return invalid("locations.speed_limits is empty")
	}
	for _, sl := range l.SpeedLimits {
		if sl <= 0 {
			return invalid("locations.speed_limits contains non-positive value %d", sl)
		}
	}
	b := l.BoundingBox
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return invalid("locations.bounding_box is inverted: %+v", b)
	}
	if len(l.Streets) == 0 {
		return invalid("locations.streets is empty")
	}
	if dup := lo.FindDuplicatesBy(l.Streets, func(s Street) string { return s.Name }); len(dup) > 0 {
		return invalid("locations.streets has duplicated name %q", dup[0].Name)
	}
	for _, s := range l.Streets {
		if strings.TrimSpace(s.Name) == "" {
			return invalid("locations.streets has an empty name")
		}
		if s.Movement == "" {
			continue
		}
		if _, ok := movementClasses[s.Movement]; !ok {
			return invalid("street %q has unknown movement %q", s.Name, s.Movement)
		}
	}

	s := c.Sensors
	if s.CoverageRatio < 0 || s.CoverageRatio > 1 {
		return invalid("sensors.coverage_ratio must be in [0,1], got %v", s.CoverageRatio)
	}
	if len(s.Types) == 0 {
		return invalid("sensors.types is empty")
	}
	if err := validateWeights("sensors.statuses", s.Statuses); err != nil {
		return err
	}
	if s.CoordJitterDegree < 0 {
		return invalid("sensors.coord_jitter_degree must be >= 0")
	}
	if s.InstallYears <= 0 {
		return invalid("sensors.install_years must be > 0")
	}

	v := c.Vehicles
	if v.Count < 0 {
		return invalid("vehicles.count must be >= 0, got %d", v.Count)
	}
	if err := validateWeights("vehicles.types", v.Types); err != nil {
		return err
	}
	fallback := v.Models[v.Types[0].Name]
	for _, t := range v.Types {
		if len(v.Models[t.Name]) == 0 && len(fallback) == 0 {
			return invalid("vehicles.models has no pool for %q and no fallback pool for %q", t.Name, v.Types[0].Name)
		}
	}
	if both := lo.Intersect(v.HeavyTypes, v.TwoWheelTypes); len(both) > 0 {
		return invalid("vehicle type %q is both heavy and two-wheel", both[0])
	}
	if len(v.Colors) == 0 {
		return invalid("vehicles.colors is empty")
	}
	if !strings.ContainsAny(v.PlatePattern, "?#") {
		return invalid("vehicles.plate_pattern %q has no placeholder", v.PlatePattern)
	}
	if v.PlateMaxRetries <= 0 {
		return invalid("vehicles.plate_max_retries must be > 0")
	}

	st := c.Stream
	if st.Interval < 0 {
		return invalid("stream.interval must be >= 0")
	}
	if st.FlushEvery <= 0 {
		return invalid("stream.flush_every must be > 0")
	}
	if st.SpeedModel != "v1" && st.SpeedModel != "v2" {
		return invalid("stream.speed_model must be v1 or v2, got %q", st.SpeedModel)
	}

	o := c.Output
	if o.LocationsFile == "" || o.SensorsFile == "" || o.VehiclesFile == "" || o.EventsFile == "" {
		return invalid("output file names must not be empty")
	}

	p := c.Publish
	if p.NATS != nil && (p.NATS.URL == "" || p.NATS.Subject == "") {
		return invalid("publish.nats needs url and subject")
	}
	if p.Redis != nil && (p.Redis.Addr == "" || p.Redis.Stream == "") {
		return invalid("publish.redis needs addr and stream")
	}
	if p.Mongo != nil && (p.Mongo.URI == "" || p.Mongo.DB == "" || p.Mongo.Col == "") {
		return invalid("publish.mongo needs uri, db and col")
	}
	return nil
}
