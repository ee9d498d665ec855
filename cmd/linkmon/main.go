// Command linkmon monitors a serial link for known packet types, logs every
// decode, and optionally records observed frames to a capture database for
// offline analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/translink/internal/capture"
	"github.com/banshee-data/translink/internal/linkmux"
	"github.com/banshee-data/translink/packet"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode with a mock port emitting telemetry frames")
	portPath   = flag.String("port", "/dev/ttyUSB0", "Serial port to use (ignored in dev mode)")
	baudRate   = flag.Int("baud", 115200, "Serial baud rate")
	dbFile     = flag.String("db", "", "Capture database path (empty disables capture)")
	migrations = flag.String("migrations", "", "Migrations directory to apply before capture starts")
)

// telemetry is the primary sensor message: temperature reading, unit name,
// a one-bit status flag, a 70-bit diagnostic field, and ten raw calibration
// bytes. Identifier prefix {2, 3}.
type telemetry struct {
	Temperature *packet.Scalar[int32]
	Name        *packet.String
	Status      *packet.Bits
	Diagnostics *packet.Bits
	Calibration *packet.Array[*packet.Scalar[uint8]]

	pkt *packet.Tagged
}

func newTelemetry() *telemetry {
	t := &telemetry{
		Temperature: packet.NewScalar[int32](0),
		Name:        packet.NewString(10),
		Status:      packet.NewBits(1),
		Diagnostics: packet.NewBits(70),
		Calibration: packet.NewScalarArray[uint8](10),
	}
	t.pkt = packet.NewTagged(2, t.Temperature, t.Name, t.Status, t.Diagnostics, t.Calibration)
	t.pkt.SetID([]byte{2, 3})
	return t
}

// heartbeat carries the device uptime in seconds. Identifier prefix {1, 1}.
type heartbeat struct {
	Uptime *packet.Scalar[uint32]

	pkt *packet.Tagged
}

func newHeartbeat() *heartbeat {
	h := &heartbeat{Uptime: packet.NewScalar[uint32](0)}
	h.pkt = packet.NewTagged(2, h.Uptime)
	h.pkt.SetID([]byte{1, 1})
	return h
}

// mockTelemetryFrame builds the frame the dev-mode port emits.
func mockTelemetryFrame() []byte {
	t := newTelemetry()
	t.Temperature.Set(-10)
	t.Name.Set("DEV-UNIT")
	t.Status.Bitfield().SetFlag(0, true)
	t.Diagnostics.Bitfield().SetBits(0, 5, 0x15)
	for i := 0; i < t.Calibration.Len(); i++ {
		t.Calibration.At(i).Set(5)
	}
	return t.pkt.AppendTo(nil)
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *capture.Store
	var session string
	if *dbFile != "" {
		var err error
		store, err = capture.Open(*dbFile)
		if err != nil {
			return fmt.Errorf("failed to open capture database: %w", err)
		}
		defer store.Close()

		if *migrations != "" {
			if err := store.MigrateUp(*migrations); err != nil {
				return err
			}
		}

		session, err = store.BeginSession(*portPath)
		if err != nil {
			return err
		}
		log.Printf("Recording capture session %s to %s", session, *dbFile)
	}

	var mux linkmux.Muxer
	if *devMode {
		log.Printf("Dev mode: emitting a mock telemetry frame every second")
		mux = linkmux.NewMockMux(mockTelemetryFrame(), time.Second)
	} else {
		m, err := linkmux.NewRealMux(*portPath, linkmux.PortOptions{BaudRate: *baudRate})
		if err != nil {
			return fmt.Errorf("failed to open serial port %s: %w", *portPath, err)
		}
		mux = m
	}
	defer mux.Close()

	tele := newTelemetry()
	hb := newHeartbeat()

	dispatcher := &linkmux.Dispatcher{}
	dispatcher.Register("telemetry", tele.pkt, func(raw []byte, consumed int) {
		log.Printf("telemetry: temp=%d name=%q status=%v (%d bytes)",
			tele.Temperature.Get(), tele.Name.Get(), tele.Status.Bitfield().Flag(0), consumed)
		if store != nil {
			if err := store.RecordFrame(session, "telemetry", raw, consumed, true); err != nil {
				log.Printf("Failed to record telemetry frame: %v", err)
			}
		}
	})
	dispatcher.Register("heartbeat", hb.pkt, func(raw []byte, consumed int) {
		log.Printf("heartbeat: uptime=%ds (%d bytes)", hb.Uptime.Get(), consumed)
		if store != nil {
			if err := store.RecordFrame(session, "heartbeat", raw, consumed, true); err != nil {
				log.Printf("Failed to record heartbeat frame: %v", err)
			}
		}
	})

	go func() {
		if err := mux.Monitor(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Monitor stopped: %v", err)
			stop()
		}
	}()

	// Dispatch by hand instead of Dispatcher.Run so unmatched frames can be
	// recorded as well.
	id, frames := mux.Subscribe()
	defer mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutting down")
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			name, ok := dispatcher.Dispatch(frame)
			if !ok {
				log.Printf("Unrecognized %d byte frame: % x", len(frame), frame)
				if store != nil {
					if err := store.RecordFrame(session, "", frame, 0, false); err != nil {
						log.Printf("Failed to record unrecognized frame: %v", err)
					}
				}
				continue
			}
			log.Printf("Dispatched %s frame", name)
		}
	}
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("linkmon: %v", err)
	}
}
