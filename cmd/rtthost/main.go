package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/comm/mqtt"
	"github.com/robotalks/rtt.go/pkg/comm/stream"
	"github.com/robotalks/rtt.go/pkg/comm/websocket"
	"github.com/robotalks/rtt.go/pkg/env"
	fx "github.com/robotalks/rtt.go/pkg/framework"
	"github.com/robotalks/rtt.go/pkg/msgs"
	"github.com/robotalks/rtt.go/pkg/probe"
)

//go-build: CGO_ENABLED=0

var (
	framed        bool
	quiet         bool
	stateInterval = time.Second
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&framed, "framed", framed, "Decode length-prefixed packets on stdout.")
	flag.BoolVar(&quiet, "q", quiet, "Do not print drained data.")
	flag.DurationVar(&stateInterval, "state-interval", stateInterval, "Interval of MQTT state updates.")
}

type statePublisher struct {
	host   *probe.Host
	bridge *mqtt.Bridge
	name   string
}

func (p *statePublisher) publish() {
	st, err := p.host.State()
	if err != nil {
		glog.Warningf("read state: %v", err)
		return
	}
	if err = p.bridge.PublishState(msgs.NewChannelState(p.name, st, p.host.Attached())); err != nil {
		glog.Warningf("publish state: %v", err)
	}
}

func (p *statePublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(stateInterval)
	defer ticker.Stop()
	for {
		p.publish()
		select {
		case <-ctx.Done():
			if err := p.bridge.ClearState(); err != nil {
				glog.Warningf("clear state: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printPackets(r io.Reader) error {
	pr := stream.NewReader(r)
	for {
		pkt, err := pr.ReadPacket()
		if err != nil {
			return err
		}
		fmt.Printf("%q\n", pkt)
	}
}

func main() {
	flag.Parse()

	conf, err := env.Default()
	if err != nil {
		glog.Exit(err)
	}
	region, err := arena.Open(conf.ArenaPath)
	if err != nil {
		glog.Exit(err)
	}
	defer region.Close()
	host, err := probe.AttachRegion(region)
	if err != nil {
		glog.Exit(err)
	}
	defer host.Detach()
	host.Interval = conf.PollInterval
	name, err := host.Name()
	if err != nil {
		glog.Exit(err)
	}

	runner := fx.NewRunner().HandleSignals()
	var sinks []io.Writer
	switch {
	case quiet:
	case framed:
		pr, pw := io.Pipe()
		sinks = append(sinks, pw)
		go func() {
			if err := printPackets(pr); err != nil && err != io.ErrClosedPipe {
				glog.Errorf("packet stream: %v", err)
			}
		}()
		defer pw.Close()
	default:
		sinks = append(sinks, os.Stdout)
	}

	q, err := conf.NewQueue()
	if err != nil {
		glog.Exit(err)
	}
	if q != nil {
		token := q.Connect()
		if token.Wait(); token.Error() != nil {
			glog.Exit(token.Error())
		}
		defer q.Close()
		bridge := mqtt.NewBridge(q, name)
		sinks = append(sinks, bridge)
		runner.Go(fx.NamedRun("state", &statePublisher{host: host, bridge: bridge, name: name}))
	}

	if conf.WebSocketAddr != "" {
		b := websocket.NewBroadcaster()
		sinks = append(sinks, b)
		srv := &http.Server{Addr: conf.WebSocketAddr, Handler: b}
		runner.Go(fx.NamedRun("websocket", fx.RunFunc(func(ctx context.Context) error {
			glog.Infof("websocket: listening on %s", conf.WebSocketAddr)
			return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
		})))
	}

	host.Sink = io.MultiWriter(sinks...)
	glog.Infof("draining %q every %s", name, host.Interval)
	if err = runner.Go(fx.NamedRun("host", fx.RunFunc(host.Run))).Wait(); err != nil {
		glog.Error(err)
	}
}
