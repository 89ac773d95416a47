package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EventLog 事件日志（NDJSON，只追加）
// 功能：每行写入一条事件JSON，按固定条数批量刷盘
// 说明：新运行截断文件，续跑时在文件末尾追加；进程崩溃最多丢失最后一批未刷盘的事件
type EventLog struct {
	path       string
	file       *os.File
	w          *bufio.Writer
	flushEvery int
	pending    int // 自上次Flush以来写入的事件数
}

// OpenEventLog 打开事件日志
// 参数：path-日志路径，flushEvery-每写入多少条事件刷盘一次（<=0按1处理），
// resume-是否在已有文件末尾追加
// 返回：事件日志实例或错误
// 说明：追加模式下若文件最后一个字节不是换行（上次写入被中断），先补一个换行，
// 使新记录从新行开始，残缺行由恢复读取器跳过
func OpenEventLog(path string, flushEvery int, resume bool) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flag = os.O_CREATE | os.O_RDWR | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if flushEvery <= 0 {
		flushEvery = 1
	}
	l := &EventLog{
		path:       path,
		file:       f,
		w:          bufio.NewWriter(f),
		flushEvery: flushEvery,
	}
	if resume {
		if err := l.terminateDanglingLine(); err != nil {
			f.Close()
			return nil, err
		}
	}
	log.Infof("event log %s opened (resume=%v, flush every %d)", path, resume, flushEvery)
	return l, nil
}

func (l *EventLog) terminateDanglingLine() error {
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("stat event log: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := l.file.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return fmt.Errorf("read event log tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	log.Warnf("event log %s ends with a partial line, terminating it", l.path)
	if _, err := l.file.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate partial line: %w", err)
	}
	return nil
}

// Append 追加一条事件记录（payload不含换行）
func (l *EventLog) Append(payload []byte) error {
	if _, err := l.w.Write(payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	l.pending++
	if l.pending >= l.flushEvery {
		return l.Flush()
	}
	return nil
}

// Flush 将缓冲区写入文件
func (l *EventLog) Flush() error {
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	l.pending = 0
	return nil
}

// Close 刷盘、同步并关闭文件
func (l *EventLog) Close() error {
	ferr := l.Flush()
	if err := l.file.Sync(); err != nil && ferr == nil {
		ferr = fmt.Errorf("sync event log: %w", err)
	}
	if err := l.file.Close(); err != nil && ferr == nil {
		ferr = fmt.Errorf("close event log: %w", err)
	}
	return ferr
}

// Path 事件日志文件路径
func (l *EventLog) Path() string {
	return l.path
}
