package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/inputwire/internal/journal"
	"github.com/mithrel/inputwire/pkg/input"
	"github.com/mithrel/inputwire/pkg/transport"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Republish journaled events through a channel pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := getConfig(cmd)
			store, err := journal.Open(cmd.Context(), v.GetString("journal_path"))
			if err != nil {
				return err
			}
			defer store.Close()
			return runReplay(cmd, v.GetString("channel_name"), store)
		},
	}
	return cmd
}

func runReplay(cmd *cobra.Command, channelName string, store *journal.Store) error {
	entries, err := store.Events(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "journal is empty")
		return nil
	}

	server, client, err := transport.OpenPair(channelName + " replay")
	if err != nil {
		return err
	}
	defer server.Close()
	con := transport.NewConsumer(client)
	defer con.Close()

	var factory input.PreallocatedFactory
	handledCount := 0
	for i := range entries {
		// Journaled frames go back out as-is; the replay side is a raw
		// channel holder rather than a field-level publisher.
		for {
			err := server.Send(&entries[i].Message)
			if errors.Is(err, transport.ErrWouldBlock) {
				if err := transport.Wait(server, transport.Writable, time.Second); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			break
		}

		ev, err := consumeNext(cmd.Context(), con, &factory)
		if err != nil {
			return err
		}
		switch e := ev.(type) {
		case *input.KeyEvent:
			fmt.Fprintf(cmd.OutOrStdout(), "#%d key code=%d device=%d\n",
				entries[i].ID, e.KeyCode(), e.DeviceID())
		case *input.MotionEvent:
			fmt.Fprintf(cmd.OutOrStdout(), "#%d motion pointers=%d device=%d\n",
				entries[i].ID, e.PointerCount(), e.DeviceID())
		}
		if entries[i].Handled {
			handledCount++
		}

		if err := con.SendFinishedSignal(entries[i].Handled); err != nil {
			return err
		}
		var finished transport.Message
		if err := server.Receive(&finished); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d events (%d originally handled)\n",
		len(entries), handledCount)
	return nil
}
