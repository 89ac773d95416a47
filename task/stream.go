package task

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity/event"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/output"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/metrics"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔事件数")
)

// StopReason 事件流停止原因
type StopReason string

const (
	ReasonCompleted       StopReason = "completed"         // 达到事件总数
	ReasonInterrupted     StopReason = "interrupted"       // 被信号或调用方取消
	ReasonNoActiveSensors StopReason = "no-active-sensors" // 没有工作中的传感器
	ReasonLogError        StopReason = "log-error"         // 事件日志写入失败
)

// Result 一次事件流运行的结果
type Result struct {
	Emitted     int64         // 本次写出的事件数
	LastEventID int64         // 最后写出的事件ID
	Reason      StopReason    // 停止原因
	Elapsed     time.Duration // 运行时长
}

func (r Result) String() string {
	return fmt.Sprintf("emitted %d events, last event id %d, stopped: %s, elapsed %s",
		r.Emitted, r.LastEventID, r.Reason, r.Elapsed.Round(time.Millisecond))
}

// Run 运行事件流
// 功能：逐条合成事件，写入事件日志并发布到各通道，直到达到总数、被取消或无法继续
// 参数：stop-取消后在当前事件处理完后停止
// 返回：运行结果；事件日志打开或写入失败时同时返回错误
// 算法说明：
// 1. 续跑时从事件日志恢复最后的event_id，新事件从其后开始
// 2. 每次迭代：合成事件 -> 写日志（失败即终止）-> 发布（失败只告警）-> 心跳日志 -> 节奏等待
// 3. 结束时刷盘、关闭日志与发布通道
func (ctx *Context) Run(stop context.Context) (res Result, err error) {
	c := ctx.config.Stream
	path := ctx.config.Output.EventsPath()
	defer ctx.Close()

	var lastID int64
	if c.Resume {
		if lastID, err = input.RecoverLastEventID(path); err != nil {
			return Result{Reason: ReasonLogError}, err
		}
	}
	evLog, err := output.OpenEventLog(path, c.FlushEvery, c.Resume)
	if err != nil {
		return Result{LastEventID: lastID, Reason: ReasonLogError}, err
	}
	defer func() {
		if cerr := evLog.Close(); cerr != nil && err == nil {
			err = cerr
			res.Reason = ReasonLogError
		}
	}()

	speed, err := event.NewSpeedModel(c.SpeedModel)
	if err != nil {
		return Result{LastEventID: lastID}, err
	}
	synth := event.NewSynthesizer(
		ctx.locationManager, ctx.sensorManager, ctx.vehicleManager,
		speed, ctx.rng, ctx.clock, lastID,
	).WithVehicleClasses(event.NewVehicleClasses(
		ctx.config.Vehicles.HeavyTypes, ctx.config.Vehicles.TwoWheelTypes,
	))
	metrics.LastEventID.Set(float64(lastID))

	ctx.clock.Init()
	log.Infof("start streaming to %s: first event id %d, total %d, interval %s, speed model %s",
		evLog.Path(), lastID+1, c.TotalEvents, c.Interval, speed.Version())
	res.LastEventID = lastID
	defer func() {
		res.Elapsed = ctx.clock.Elapsed()
		log.Infof("stream stopped: %v", res)
	}()

	for {
		if stop.Err() != nil {
			res.Reason = ReasonInterrupted
			return res, nil
		}
		ev, err := synth.Next()
		if errors.Is(err, event.ErrNoActiveSensors) {
			log.Warn("no active sensors, stop streaming")
			res.Reason = ReasonNoActiveSensors
			return res, nil
		} else if err != nil {
			return res, err
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return res, fmt.Errorf("encode event %d: %w", ev.EventID, err)
		}
		if err := evLog.Append(payload); err != nil {
			log.Errorf("event log write failed at event %d: %v", ev.EventID, err)
			res.Reason = ReasonLogError
			return res, err
		}
		res.Emitted++
		res.LastEventID = ev.EventID
		metrics.EventsTotal.Inc()
		metrics.LastEventID.Set(float64(ev.EventID))
		metrics.EventSpeed.Observe(float64(ev.Speed))

		ctx.publish(stop, ev.EventID, payload)
		ctx.heartbeat(ev, res.Emitted)

		if c.TotalEvents > 0 && res.Emitted >= c.TotalEvents {
			res.Reason = ReasonCompleted
			return res, nil
		}
		if !ctx.clock.Wait(stop) {
			res.Reason = ReasonInterrupted
			return res, nil
		}
	}
}

// publish 发布到所有通道，失败只记录告警与指标
func (ctx *Context) publish(stop context.Context, id int64, payload []byte) {
	for _, p := range ctx.publishers {
		start := time.Now()
		err := p.Publish(stop, payload)
		metrics.PublishDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
			log.Warnf("publish event %d to %s failed: %v", id, p.Name(), err)
		}
	}
}

func (ctx *Context) heartbeat(ev entity.Event, emitted int64) {
	log.Debugf("event %d: %s %s %d km/h %s at %s (%s)",
		ev.EventID, ev.PlateNumber, ev.VehicleType, ev.Speed, ev.Direction, ev.LocationName, ev.SensorID)
	if *heartBeatInterval > 0 && emitted%int64(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof("EVENT: %d emitted=%d (%d:%d:%.2f)", ev.EventID, emitted, hour, minute, second)
	}
}
