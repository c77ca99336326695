package logger_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dalps/rhythm/logger"
)

func TestRepeatsAreFolded(t *testing.T) {
	logger.Clear()
	logger.Log("beat", "dropped")
	logger.Log("beat", "dropped")
	logger.Log("beat", "dropped")
	logger.Log("worker", "started")
	var buf bytes.Buffer
	logger.Write(&buf)
	want := "beat: dropped (repeat x3)\nworker: started\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestTail(t *testing.T) {
	logger.Clear()
	for i := 0; i < 5; i++ {
		logger.Logf("test", "entry %d", i)
	}
	var buf bytes.Buffer
	logger.Tail(&buf, 2)
	if want := "test: entry 3\ntest: entry 4\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
	buf.Reset()
	logger.Tail(&buf, 100)
	if n := strings.Count(buf.String(), "\n"); n != 5 {
		t.Fatalf("expected 5 lines, got %d", n)
	}
}

func TestLogIsBounded(t *testing.T) {
	logger.Clear()
	for i := 0; i < logger.MaxEntries+10; i++ {
		logger.Logf("test", "entry %d", i)
	}
	entries := logger.Entries()
	if len(entries) != logger.MaxEntries {
		t.Fatalf("expected %d entries, got %d", logger.MaxEntries, len(entries))
	}
	if entries[0].Detail != "entry 10" {
		t.Fatalf("expected the oldest entries to be dropped, first is %q", entries[0].Detail)
	}
}

func TestEchoAndNewlines(t *testing.T) {
	logger.Clear()
	var buf bytes.Buffer
	logger.SetEcho(&buf)
	defer logger.SetEcho(nil)
	logger.Log("midi", "line one\nline two")
	if want := "midi: line one line two\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestConcurrentLogging(t *testing.T) {
	logger.Clear()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Log(fmt.Sprintf("g%d", i), fmt.Sprint(j))
			}
		}(i)
	}
	wg.Wait()
	if len(logger.Entries()) != logger.MaxEntries {
		t.Fatalf("expected a full log, got %d entries", len(logger.Entries()))
	}
}
