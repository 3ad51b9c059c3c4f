// Package admin runs the operator console: status queries against the
// ledger and the gated server shutdown.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"trattoria/internal/domain"
	"trattoria/internal/logger"
	"trattoria/internal/orders"
)

// Console reads operator commands line by line and answers on out. It
// runs alongside the listener and reads the ledger out-of-band from any
// session.
type Console struct {
	in       io.Reader
	out      io.Writer
	orders   *orders.Service
	shutdown func()
	log      *logrus.Entry
}

// NewConsole builds a console. shutdown is invoked when a stop command
// is accepted.
func NewConsole(in io.Reader, out io.Writer, orderSvc *orders.Service, shutdown func()) *Console {
	return &Console{
		in:       in,
		out:      out,
		orders:   orderSvc,
		shutdown: shutdown,
		log:      logger.New("admin"),
	}
}

// Run processes operator input until a stop command is accepted, the
// input closes or ctx is cancelled.
func (c *Console) Run(ctx context.Context) {
	fmt.Fprintln(c.out, "commands:")
	fmt.Fprintln(c.out, "  stat table <id>     show orders for a table")
	fmt.Fprintln(c.out, "  stat status <s>     show orders in a status")
	fmt.Fprintln(c.out, "  stop                stop the server once all orders are served")

	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == "stop":
			if c.handleStop(ctx) {
				return
			}
		case strings.HasPrefix(line, "stat table "):
			c.handleStatTable(ctx, strings.TrimSpace(strings.TrimPrefix(line, "stat table ")))
		case strings.HasPrefix(line, "stat status "):
			c.handleStatStatus(ctx, strings.TrimSpace(strings.TrimPrefix(line, "stat status ")))
		default:
			fmt.Fprintf(c.out, "unknown command: %s\n", line)
		}
	}
	if err := sc.Err(); err != nil {
		c.log.WithError(err).Warn("console_read_failed")
	}
}

// handleStop reports whether the server is shutting down.
func (c *Console) handleStop(ctx context.Context) bool {
	served, err := c.orders.AllServed(ctx)
	if err != nil {
		c.log.WithError(err).Error("stop_check_failed")
		fmt.Fprintln(c.out, "cannot check order status, server keeps running")
		return false
	}
	if !served {
		c.log.Warn("stop_refused")
		fmt.Fprintln(c.out, "not all orders are served, server keeps running")
		return false
	}
	c.log.Info("stop_accepted")
	fmt.Fprintln(c.out, "all orders are served, stopping the server")
	c.shutdown()
	return true
}

func (c *Console) handleStatTable(ctx context.Context, tableID string) {
	list, err := c.orders.OrdersByTable(ctx, tableID)
	if err != nil {
		c.log.WithError(err).Error("stat_failed")
		fmt.Fprintln(c.out, "cannot read orders")
		return
	}
	if len(list) == 0 {
		fmt.Fprintf(c.out, "no orders for table %s\n", tableID)
		return
	}
	for i, o := range list {
		fmt.Fprintf(c.out, "%d) Order: %s, Status: %s\n", i+1, o.Items, o.Status)
	}
}

func (c *Console) handleStatStatus(ctx context.Context, status string) {
	st := domain.OrderStatus(status)
	if !st.Valid() {
		fmt.Fprintf(c.out, "unknown status %q (waiting, preparing, served)\n", status)
		return
	}
	list, err := c.orders.OrdersByStatus(ctx, st)
	if err != nil {
		c.log.WithError(err).Error("stat_failed")
		fmt.Fprintln(c.out, "cannot read orders")
		return
	}
	if len(list) == 0 {
		fmt.Fprintf(c.out, "no orders with status %s\n", status)
		return
	}
	for i, o := range list {
		fmt.Fprintf(c.out, "%d) Table: %s Course: %s Order: %s\n", i+1, o.TableID, o.Course, o.Items)
	}
}
