package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/comm/stream"
	"github.com/robotalks/rtt.go/pkg/env"
	fx "github.com/robotalks/rtt.go/pkg/framework"
	"github.com/robotalks/rtt.go/pkg/rtt"
)

//go-build: CGO_ENABLED=0

var (
	rate   = 100 * time.Millisecond
	count  int
	framed bool

	flushTimeout = time.Second
)

func init() {
	env.SetupFlags()
	flag.DurationVar(&rate, "rate", rate, "Interval between log lines.")
	flag.IntVar(&count, "count", count, "Number of lines to write, 0 for unlimited.")
	flag.BoolVar(&framed, "framed", framed, "Write length-prefixed packets instead of lines.")
}

type emitter struct {
	w   *rtt.Writer
	pkt *stream.Writer
}

func (e *emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	start := time.Now()
	for seq := 1; count == 0 || seq <= count; seq++ {
		line := fmt.Sprintf("[%d] %8.3f uptime mode=%s\n", seq,
			time.Since(start).Seconds(), e.w.Channel().Mode())
		if e.pkt != nil {
			if err := e.pkt.WritePacket([]byte(line)); err != nil {
				return fmt.Errorf("write packet %d: %v", seq, err)
			}
		} else {
			e.w.WriteAll([]byte(line))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// flush waits for an attached host to drain, giving up after flushTimeout
// since the host may be gone. A flush left spinning is released when the
// region is closed.
func flush(w *rtt.Writer) {
	done := make(chan struct{})
	go func() {
		w.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(flushTimeout):
		glog.Warning("flush timed out, host not draining")
	}
}

func main() {
	flag.Parse()

	conf, err := env.Default()
	if err != nil {
		glog.Exit(err)
	}
	cfg, err := conf.ChannelConfig()
	if err != nil {
		glog.Exit(err)
	}
	region, err := arena.Create(conf.ArenaPath, arena.SizeFor(cfg))
	if err != nil {
		glog.Exit(err)
	}
	defer region.Close()
	ch, err := region.Layout(cfg)
	if err != nil {
		glog.Exit(err)
	}
	w, err := ch.TakeWriter()
	if err != nil {
		glog.Exit(err)
	}
	defer w.Release()
	glog.Infof("channel %q (%d bytes) ready in %s", ch.Name(), ch.Size(), conf.ArenaPath)

	e := &emitter{w: w}
	if framed {
		e.pkt = stream.NewWriter(w)
	}
	err = fx.NewRunner().HandleSignals().Go(fx.NamedRun("emitter", e)).Wait()
	flush(w)
	if err != nil {
		glog.Exit(err)
	}
}
