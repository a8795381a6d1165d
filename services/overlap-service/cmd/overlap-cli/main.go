package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/libs/grpcx"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/grpcserver"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

func main() {
	var (
		tz1     = flag.String("tz1", getenv("TZ1", "Europe/Stockholm"), "person 1 time zone")
		start1  = flag.String("start1", "09:00", "person 1 start (HH:MM)")
		end1    = flag.String("end1", "17:00", "person 1 end (HH:MM)")
		tz2     = flag.String("tz2", getenv("TZ2", "America/Chicago"), "person 2 time zone")
		start2  = flag.String("start2", "09:00", "person 2 start (HH:MM)")
		end2    = flag.String("end2", "17:00", "person 2 end (HH:MM)")
		addr    = flag.String("addr", getenv("OVERLAP_GRPC_ADDR", ""), "evaluate remotely via gRPC (host:port); empty evaluates locally")
		asJSON  = flag.Bool("json", false, "print JSON instead of text")
		timeout = flag.Duration("timeout", 5*time.Second, "remote call timeout")
	)
	flag.Parse()

	req := evaluator.Request{TZ1: *tz1, Start1: *start1, End1: *end1, TZ2: *tz2, Start2: *start2, End2: *end2}

	var (
		view render.View
		err  error
	)
	if *addr != "" {
		view, err = evaluateRemote(*addr, *timeout, req)
	} else {
		view, err = evaluator.NewService(zoned.NewSystemOracle(time.Now), nil).Evaluate(context.Background(), req)
	}
	if err != nil {
		fatal(err.Error())
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fatal(err.Error())
		}
		return
	}
	fmt.Print(render.Text(view))
}

func evaluateRemote(addr string, timeout time.Duration, req evaluator.Request) (render.View, error) {
	conn, err := grpcx.Dial(addr, grpcx.DialOptions{Timeout: timeout})
	if err != nil {
		return render.View{}, err
	}
	defer conn.Close()
	return grpcserver.NewClient(conn).Evaluate(context.Background(), req)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
