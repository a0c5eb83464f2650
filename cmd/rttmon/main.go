package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/comm/mqtt"
	"github.com/robotalks/rtt.go/pkg/comm/stream"
	"github.com/robotalks/rtt.go/pkg/env"
	fx "github.com/robotalks/rtt.go/pkg/framework"
	"github.com/robotalks/rtt.go/pkg/msgs"
)

//go-build: CGO_ENABLED=0

var (
	channel = "+"
	framed  bool
)

func init() {
	env.SetupFlags()
	flag.StringVar(&channel, "channel", channel, "Channel to watch, + for all.")
	flag.BoolVar(&framed, "framed", framed, "Decode length-prefixed packets, requires -channel.")
}

func printState(st *msgs.ChannelState) {
	log.Printf("%s/state: %s used=%d/%d attached=%v (%s)", st.Name,
		st.State().Mode, st.Used, st.Size, st.Attached, st.Time().Format("15:04:05.000"))
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf, err := env.Default()
	if err != nil {
		glog.Exit(err)
	}
	if conf.MQTTBrokerURL == "" {
		glog.Exit("MQTT broker URL required")
	}
	if framed && channel == "+" {
		glog.Exit("-framed requires -channel")
	}
	q, err := conf.NewQueue()
	if err != nil {
		glog.Exit(err)
	}

	mqtt.SubState(q, channel, printState)
	runner := fx.NewRunner().HandleSignals()
	if framed {
		r := mqtt.NewDataReader(q, channel)
		runner.Go(fx.NamedRun("packets", fx.RunFunc(func(ctx context.Context) error {
			pr := stream.NewReader(r)
			return fx.RunWithContextCancel(ctx, func() { r.Close() }, func() error {
				for {
					pkt, err := pr.ReadPacket()
					if err != nil {
						return err
					}
					log.Printf("%s/data: %q", channel, pkt)
				}
			})
		})))
	} else {
		q.Sub(mqtt.DataTopic(channel), func(topic string, payload []byte) {
			log.Printf("%s: %q", topic, payload)
		})
	}

	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		glog.Exit(token.Error())
	}
	defer q.Close()
	runner.Go(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	if err = runner.Wait(); err != nil {
		glog.Error(err)
	}
}
