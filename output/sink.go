package output

import (
	"context"
	"errors"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
)

// Publisher 事件发布通道
// 说明：发布是尽力而为的，失败由调用方记录告警，不影响事件日志
type Publisher interface {
	Name() string
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

// OpenPublishers 按配置建立所有发布通道
// 说明：任一通道建立失败时关闭已建立的通道并返回错误
func OpenPublishers(ctx context.Context, c config.Publish) ([]Publisher, error) {
	pubs := make([]Publisher, 0, 3)
	fail := func(err error) ([]Publisher, error) {
		ClosePublishers(pubs)
		return nil, err
	}
	if c.NATS != nil {
		p, err := NewNATSPublisher(*c.NATS)
		if err != nil {
			return fail(err)
		}
		pubs = append(pubs, p)
	}
	if c.Redis != nil {
		p, err := NewRedisPublisher(ctx, *c.Redis)
		if err != nil {
			return fail(err)
		}
		pubs = append(pubs, p)
	}
	if c.Mongo != nil {
		pubs = append(pubs, NewMongoPublisher(*c.Mongo))
	}
	for _, p := range pubs {
		log.Infof("publisher %s ready", p.Name())
	}
	return pubs, nil
}

// ClosePublishers 关闭所有发布通道，返回合并后的错误
func ClosePublishers(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			log.Warnf("close publisher %s: %v", p.Name(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
