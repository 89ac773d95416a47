package output

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPublisher 将事件逐条插入MongoDB集合
type MongoPublisher struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoPublisher(c config.MongoSink) *MongoPublisher {
	client := mongoutil.NewClient(c.URI)
	return &MongoPublisher{
		client: client,
		coll:   mongoutil.GetMongoColl(client, c),
	}
}

func (p *MongoPublisher) Name() string {
	return fmt.Sprintf("mongo:%s.%s", p.coll.Database().Name(), p.coll.Name())
}

// Publish 将事件JSON转为BSON文档后插入，字段顺序保持不变
func (p *MongoPublisher) Publish(ctx context.Context, payload []byte) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(payload, false, &doc); err != nil {
		return fmt.Errorf("convert event to bson: %w", err)
	}
	_, err := p.coll.InsertOne(ctx, doc)
	return err
}

func (p *MongoPublisher) Close() error {
	return p.client.Disconnect(context.Background())
}
