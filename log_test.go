package bdd2yolo

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cyclopcam/logs"
)

// recordingLog forwards to a testing log and keeps the info and warning lines.
type recordingLog struct {
	logs.Log
	mu       sync.Mutex
	infos    []string
	warnings []string
}

func newRecordingLog(t *testing.T) *recordingLog {
	return &recordingLog{Log: logs.NewTestingLog(t)}
}

func (l *recordingLog) Infof(format string, a ...interface{}) {
	l.mu.Lock()
	l.infos = append(l.infos, fmt.Sprintf(format, a...))
	l.mu.Unlock()
	l.Log.Infof(format, a...)
}

func (l *recordingLog) Warnf(format string, a ...interface{}) {
	l.mu.Lock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, a...))
	l.mu.Unlock()
	l.Log.Warnf(format, a...)
}

// InfosWithPrefix returns the info lines starting with prefix, in logging order.
func (l *recordingLog) InfosWithPrefix(prefix string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var lines []string
	for _, line := range l.infos {
		if strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	return lines
}

func (l *recordingLog) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}
