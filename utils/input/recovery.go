package input

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// eventIDHead 只解析事件的event_id字段
type eventIDHead struct {
	EventID *int64 `json:"event_id"`
}

// RecoverLastEventID 从事件日志中恢复最后写出的事件ID
// 功能：续跑前确定新事件ID的起点
// 参数：path-事件日志路径
// 返回：最后一条有效记录的event_id；文件不存在或为空时返回0
func RecoverLastEventID(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("event log %s not found, start from 0", path)
			return 0, nil
		}
		return 0, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()
	last, skipped, err := RecoverFrom(f)
	if err != nil {
		return 0, fmt.Errorf("read event log %s: %w", path, err)
	}
	if skipped > 0 {
		log.Warnf("skipped %d malformed lines in %s", skipped, path)
	}
	log.Infof("recovered last event id %d from %s", last, path)
	return last, nil
}

// RecoverFrom 顺序读取NDJSON事件流
// 返回：最后一条有效记录的event_id，被跳过的非空无效行数，读取错误
// 算法说明：
// 1. 逐行读取，不限制行长度
// 2. 每一行能解析为带数字event_id的JSON对象时更新结果，以位置为准而非取最大值
// 3. 语法错误、被截断、缺少event_id的行跳过
func RecoverFrom(r io.Reader) (last int64, skipped int, err error) {
	br := bufio.NewReader(r)
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			if id, ok := parseEventID(line); ok {
				last = id
			} else if !blank(line) {
				skipped++
			}
		}
		if rerr == io.EOF {
			return last, skipped, nil
		}
		if rerr != nil {
			return last, skipped, rerr
		}
	}
}

func parseEventID(line []byte) (int64, bool) {
	var head eventIDHead
	if err := json.Unmarshal(line, &head); err != nil || head.EventID == nil {
		return 0, false
	}
	return *head.EventID, true
}

func blank(line []byte) bool {
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
