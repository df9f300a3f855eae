package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/inputwire/internal/journal"
	"github.com/mithrel/inputwire/pkg/input"
	"github.com/mithrel/inputwire/pkg/transport"
)

func newTapCmd() *cobra.Command {
	var journalEvents bool

	cmd := &cobra.Command{
		Use:   "tap",
		Short: "Publish terminal keystrokes through a channel pair (q to quit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := getConfig(cmd)
			var store *journal.Store
			if journalEvents {
				s, err := journal.Open(cmd.Context(), v.GetString("journal_path"))
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}
			return runTap(cmd, v.GetString("channel_name"), int32(v.GetInt("tap.device_id")), store)
		},
	}

	cmd.Flags().BoolVar(&journalEvents, "journal", false, "record consumed events to the journal")
	return cmd
}

// runTap round-trips one key event per keystroke: publish, consume, print,
// acknowledge, read the acknowledgment. One iteration is the whole protocol
// in miniature.
func runTap(cmd *cobra.Command, channelName string, deviceID int32, store *journal.Store) error {
	stdin := int(os.Stdin.Fd())
	if !term.IsTerminal(stdin) {
		return errors.New("tap: stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		return fmt.Errorf("tap: raw mode: %w", err)
	}
	defer term.Restore(stdin, oldState)

	server, client, err := transport.OpenPair(channelName + " tap")
	if err != nil {
		return err
	}
	pub := transport.NewPublisher(server)
	con := transport.NewConsumer(client)
	defer con.Close()
	defer pub.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "tapping keys on %q; q or ctrl-c quits\r\n", pub.Channel().Name())

	var factory input.PreallocatedFactory
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		key := buf[0]
		if key == 'q' || key == 0x03 {
			return nil
		}

		now := time.Now().UnixNano()
		err := pub.PublishKeyEvent(
			deviceID, input.SourceKeyboard, input.KeyActionDown, 0,
			int32(key), int32(key), input.MetaNone, 0, now, now)
		if err != nil {
			return err
		}

		ev, err := consumeNext(cmd.Context(), con, &factory)
		if err != nil {
			return err
		}
		keyEv := ev.(*input.KeyEvent)
		fmt.Fprintf(cmd.OutOrStdout(), "key %3d (%q) device=%d at %d\r\n",
			keyEv.KeyCode(), printableKey(key), keyEv.DeviceID(), keyEv.EventTime())

		if store != nil {
			msg := transport.Message{
				Kind: transport.KindKey,
				Key: transport.KeyBody{
					EventTime: keyEv.EventTime(),
					DeviceID:  keyEv.DeviceID(),
					Source:    keyEv.Source(),
					Action:    keyEv.Action(),
					KeyCode:   keyEv.KeyCode(),
					ScanCode:  keyEv.ScanCode(),
					MetaState: keyEv.MetaState(),
					DownTime:  keyEv.DownTime(),
				},
			}
			if err := store.Append(cmd.Context(), &msg, true); err != nil {
				return err
			}
		}

		if err := con.SendFinishedSignal(true); err != nil {
			return err
		}
		if err := transport.Wait(pub.Channel(), transport.Readable, time.Second); err != nil {
			return err
		}
		if _, err := pub.ReceiveFinishedSignal(); err != nil {
			return err
		}
	}
}

func consumeNext(ctx context.Context, con *transport.Consumer, factory input.EventFactory) (input.Event, error) {
	for {
		ev, err := con.Consume(factory)
		if errors.Is(err, transport.ErrWouldBlock) {
			if err := transport.Wait(con.Channel(), transport.Readable, time.Second); err != nil &&
				!errors.Is(err, transport.ErrWouldBlock) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return ev, err
	}
}

func printableKey(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return string(rune(b))
	}
	return fmt.Sprintf("\\x%02x", b)
}
