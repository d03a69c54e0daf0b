package tunnel

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DefaultStartupDelay is how long Start blocks after spawning when no
// other probe is configured.
const DefaultStartupDelay = 3 * time.Second

// Target describes the freshly spawned tunnel to a Probe.
type Target struct {
	PID        int
	PIDFile    string
	AcceptPort int
}

// Probe decides when a spawned tunnel may be considered up.
type Probe interface {
	Wait(ctx context.Context, target Target) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context, target Target) error

func (f ProbeFunc) Wait(ctx context.Context, target Target) error {
	return f(ctx, target)
}

// FixedDelay blocks for d. It checks nothing.
func FixedDelay(d time.Duration) Probe {
	return fixedDelay{d: d}
}

type fixedDelay struct {
	d time.Duration
}

func (f fixedDelay) Wait(ctx context.Context, _ Target) error {
	timer := time.NewTimer(f.d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PIDFile waits until stunnel has written a valid pid file.
func PIDFile(timeout, interval time.Duration) Probe {
	return ProbeFunc(func(ctx context.Context, target Target) error {
		return poll(ctx, timeout, interval, func(context.Context) error {
			_, err := ReadPIDFile(target.PIDFile)
			return err
		})
	})
}

// TCPDial waits until the accept port takes connections on loopback.
func TCPDial(timeout, interval time.Duration) Probe {
	return ProbeFunc(func(ctx context.Context, target Target) error {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(target.AcceptPort))
		return poll(ctx, timeout, interval, func(ctx context.Context) error {
			var d net.Dialer
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		})
	})
}

// Postgres waits until a database behind the tunnel answers a ping. A %d
// in dsn is replaced by the accept port.
func Postgres(dsn string, timeout, interval time.Duration) Probe {
	return ProbeFunc(func(ctx context.Context, target Target) error {
		db, err := sql.Open("postgres", resolveDSN(dsn, target.AcceptPort))
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		return poll(ctx, timeout, interval, db.PingContext)
	})
}

// resolveDSN substitutes the first %d with port. Other % sequences, such
// as escaped password characters, are left alone.
func resolveDSN(dsn string, port int) string {
	return strings.Replace(dsn, "%d", strconv.Itoa(port), 1)
}

func poll(ctx context.Context, timeout, interval time.Duration, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := check(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last check: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
