package logging

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

const gelfVersion = "1.1"

// messageWriter is the part of gelf.TCPWriter the hook needs
type messageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// GELFHook ships every logrus entry to a GELF collector
type GELFHook struct {
	writer messageWriter
	host   string
}

func NewGELFHook(writer messageWriter) *GELFHook {
	host, _ := os.Hostname()
	return &GELFHook{
		writer: writer,
		host:   host,
	}
}

func (h *GELFHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *GELFHook) Fire(entry *log.Entry) error {
	if err := h.writer.WriteMessage(newMessage(entry, h.host)); err != nil {
		return fmt.Errorf("failed to ship log message: %w", err)
	}
	return nil
}

func newMessage(entry *log.Entry, host string) *gelf.Message {
	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		// _id is reserved by GELF
		if k == "id" {
			k = "id_"
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		extra["_"+k] = v
	}

	return &gelf.Message{
		Version:  gelfVersion,
		Host:     host,
		Short:    entry.Message,
		TimeUnix: float64(entry.Time.UnixMilli()) / 1000,
		Level:    syslogLevel(entry.Level),
		Extra:    extra,
	}
}

func syslogLevel(level log.Level) int32 {
	switch level {
	case log.PanicLevel:
		return 0
	case log.FatalLevel:
		return 2
	case log.ErrorLevel:
		return 3
	case log.WarnLevel:
		return 4
	case log.InfoLevel:
		return 6
	default:
		return 7
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// collector detaches the GELF hook and hands logging back to stdout before
// closing the connection
type collector struct {
	writer *gelf.TCPWriter
}

func (c collector) Close() error {
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	log.SetOutput(os.Stdout)
	return c.writer.Close()
}

// Setup ships the standard logger to the GELF collector when addr and port
// are set and reachable, otherwise logs to stdout. The returned closer
// releases the collector connection.
func Setup(addr string, port int, debug bool) io.Closer {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	log.SetOutput(os.Stdout)

	if addr == "" || port == 0 {
		return nopCloser{}
	}

	endpoint := net.JoinHostPort(addr, strconv.Itoa(port))
	writer, err := gelf.NewTCPWriter(endpoint)
	if err != nil {
		log.Warnf("⚠️ Log collector %s unreachable, logging to stdout: %v", endpoint, err)
		return nopCloser{}
	}

	log.AddHook(NewGELFHook(writer))
	log.SetOutput(io.Discard)
	return collector{writer: writer}
}
