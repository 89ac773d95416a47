package output

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
)

// NATSPublisher 发布到NATS主题
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(c config.NATSSink) (*NATSPublisher, error) {
	name := c.Name
	if name == "" {
		name = "traffic-sensor-sim"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := nats.Connect(c.URL,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", c.URL, err)
	}
	return &NATSPublisher{conn: conn, subject: c.Subject}, nil
}

func (p *NATSPublisher) Name() string {
	return "nats:" + p.subject
}

func (p *NATSPublisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(p.subject, payload)
}

// Close 发送缓冲中的消息后关闭连接
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
