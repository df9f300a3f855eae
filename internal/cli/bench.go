package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/inputwire/pkg/input"
	"github.com/mithrel/inputwire/pkg/transport"
)

func newBenchCmd() *cobra.Command {
	var (
		events   int
		motion   bool
		pointers int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure transport throughput over an in-process channel pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := getConfig(cmd)
			if !cmd.Flags().Changed("events") {
				events = v.GetInt("bench.events")
			}
			if !cmd.Flags().Changed("pointers") {
				pointers = v.GetInt("bench.pointers")
			}
			if pointers < 1 || pointers > input.MaxPointers {
				return fmt.Errorf("bench: pointers %d outside [1, %d]", pointers, input.MaxPointers)
			}
			return runBench(cmd, v.GetString("channel_name"), events, motion, pointers)
		},
	}

	cmd.Flags().IntVar(&events, "events", 10000, "number of events to push through the channel")
	cmd.Flags().BoolVar(&motion, "motion", false, "publish motion events instead of key events")
	cmd.Flags().IntVar(&pointers, "pointers", 2, "pointer count for motion events")
	return cmd
}

// runBench pushes events through a channel pair with a consumer goroutine
// acknowledging each one, publishing ahead until the kernel buffer pushes
// back. The backpressure path is the interesting part: a run with enough
// events always hits would-block on both sides.
func runBench(cmd *cobra.Command, channelName string, total int, motion bool, pointers int) error {
	server, client, err := transport.OpenPair(channelName + " bench")
	if err != nil {
		return err
	}
	pub := transport.NewPublisher(server)
	con := transport.NewConsumer(client)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- runBenchConsumer(con)
	}()

	props := make([]input.PointerProperties, pointers)
	coords := make([]input.PointerCoords, pointers)
	for i := range props {
		props[i] = input.PointerProperties{ID: int32(i), ToolType: input.ToolTypeFinger}
		coords[i] = input.PointerCoords{X: float32(100 + i), Y: float32(200 + i), Pressure: 1}
	}

	start := time.Now()
	published, acked := 0, 0
	for acked < total {
		for published < total {
			now := time.Now().UnixNano()
			var err error
			if motion {
				err = pub.PublishMotionEvent(
					1, input.SourceTouchscreen, input.MotionActionMove, 0, 0, 0, 0,
					0, 0, 1, 1, now, now, pointers, props, coords)
			} else {
				err = pub.PublishKeyEvent(
					1, input.SourceKeyboard, input.KeyActionDown, 0,
					int32(published%256), 0, 0, 0, now, now)
			}
			if errors.Is(err, transport.ErrWouldBlock) {
				break
			}
			if err != nil {
				pub.Close()
				<-consumerDone
				return err
			}
			published++
		}

		if err := transport.Wait(pub.Channel(), transport.Readable, 5*time.Second); err != nil {
			pub.Close()
			<-consumerDone
			return fmt.Errorf("bench: waiting for finished signals: %w", err)
		}
		for acked < published {
			if _, err := pub.ReceiveFinishedSignal(); err != nil {
				if errors.Is(err, transport.ErrWouldBlock) {
					break
				}
				pub.Close()
				<-consumerDone
				return err
			}
			acked++
		}
	}
	elapsed := time.Since(start)

	if err := pub.Close(); err != nil {
		return err
	}
	if err := <-consumerDone; err != nil {
		return err
	}

	kind := "key"
	if motion {
		kind = fmt.Sprintf("motion(%dp)", pointers)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s events in %v (%.0f events/s, %.1f µs round trip)\n",
		total, kind, elapsed.Round(time.Millisecond),
		float64(total)/elapsed.Seconds(),
		float64(elapsed.Microseconds())/float64(total))
	return nil
}

func runBenchConsumer(con *transport.Consumer) error {
	defer con.Close()
	var factory input.PreallocatedFactory
	for {
		ev, err := con.Consume(&factory)
		switch {
		case errors.Is(err, transport.ErrWouldBlock):
			if err := transport.Wait(con.Channel(), transport.Readable, 5*time.Second); err != nil {
				return fmt.Errorf("bench consumer: %w", err)
			}
			continue
		case errors.Is(err, transport.ErrPeerClosed):
			return nil
		case err != nil:
			return fmt.Errorf("bench consumer: %w", err)
		}
		_ = ev

		for {
			err := con.SendFinishedSignal(true)
			if errors.Is(err, transport.ErrWouldBlock) {
				if err := transport.Wait(con.Channel(), transport.Writable, 5*time.Second); err != nil {
					return fmt.Errorf("bench consumer: %w", err)
				}
				continue
			}
			if errors.Is(err, transport.ErrPeerClosed) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("bench consumer: %w", err)
			}
			break
		}
	}
}
