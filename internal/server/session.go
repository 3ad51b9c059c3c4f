package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trattoria/internal/domain"
	"trattoria/internal/ledger"
	"trattoria/internal/orders"
	"trattoria/internal/reservations"
)

// Client-facing messages. The result code tells the client what kind of
// reply this is; the message line is for the human at the terminal.
const (
	msgStoreError    = "error: the ledger is unavailable, try again later"
	msgNoTables      = "Sorry! All tables are reserved. Please try a different date/hour."
	msgSlotGone      = "Sorry! That table has just been booked. Please search again."
	msgNoReservation = "No reservation found for that surname and code."
	msgCheckFirst    = "error: check in with your surname and reservation code first"
	msgNoFind        = "error: no table search in progress, send find first"
	msgOrderSaved    = "Order was successfully saved!"
	msgNoWaiting     = `There are no orders in "waiting" status`
	msgNotChanged    = "Order status was not changed"
	msgServed        = `Order status changed to "served"`
	msgNoPreparing   = `There are no orders in "preparing" status right now.`
)

// findState is the result of the session's last find command; book
// indexes into it.
type findState struct {
	req     domain.FindRequest
	matches []domain.Table
}

// session handles one client connection. All session state (the last
// find result and the checked-in reservation) lives here and dies with
// the connection; nothing durable is ever derived from it.
type session struct {
	conn         net.Conn
	allocator    *reservations.Allocator
	orders       *orders.Service
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *logrus.Entry

	lastFind *findState
	auth     *domain.Reservation
}

// run reads commands until the client sends esc, the socket fails or the
// server shuts down. Protocol errors answer an error reply and keep the
// session alive; only socket errors end it.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()
	s.log.Info("session_opened")

	stop := context.AfterFunc(ctx, func() {
		// unblock the pending read on shutdown
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	sc := bufio.NewScanner(s.conn)
	for {
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Warn("session_read_failed")
			}
			s.log.Info("session_closed")
			return
		}
		cmd, payload := parseCommand(sc.Text())
		if cmd == "" {
			continue
		}
		s.log.WithField("command", cmd).Debug("command_received")

		if cmd == cmdEsc {
			s.log.Info("session_closed")
			return
		}
		if err := s.dispatch(ctx, cmd, payload); err != nil {
			s.log.WithError(err).Warn("session_write_failed")
			return
		}
	}
}

// dispatch runs one command and writes its reply. The returned error is
// a socket write failure; everything else is reported to the client.
func (s *session) dispatch(ctx context.Context, cmd, payload string) error {
	switch cmd {
	case cmdFind:
		return s.handleFind(ctx, payload)
	case cmdBook:
		return s.handleBook(ctx, payload)
	case cmdCheck:
		return s.handleCheck(ctx, payload)
	case cmdOrder:
		return s.handleOrder(ctx, payload)
	case cmdBill:
		return s.handleBill(ctx)
	case cmdTake:
		return s.handleTake(ctx)
	case cmdReady:
		return s.handleReady(ctx, payload)
	case cmdShow:
		return s.handleShow(ctx)
	default:
		s.log.WithField("command", cmd).Warn("unrecognized_command")
		return s.reply(-1, "error: unrecognized command "+strconv.Quote(cmd))
	}
}

func (s *session) handleFind(ctx context.Context, payload string) error {
	var req domain.FindRequest
	if _, err := fmt.Sscanf(payload, "%s %d %s %s", &req.Surname, &req.People, &req.Date, &req.Hour); err != nil || req.People <= 0 {
		s.log.Warn("malformed_find_request")
		return s.reply(-1, "error: expected find <surname> <people> <date> <hour>")
	}

	tables, err := s.allocator.FindAvailableTables(ctx, req)
	if err != nil {
		s.log.WithError(err).Error("find_failed")
		return s.reply(-1, msgStoreError)
	}
	if len(tables) == 0 {
		return s.reply(0, msgNoTables)
	}

	s.lastFind = &findState{req: req, matches: tables}
	lines := make([]string, len(tables))
	for i, t := range tables {
		lines[i] = fmt.Sprintf("%s %s %s", t.ID, t.Room, t.Placement)
	}
	return s.reply(len(tables), lines...)
}

func (s *session) handleBook(ctx context.Context, payload string) error {
	if s.lastFind == nil {
		return s.reply(-1, msgNoFind)
	}
	choice, err := strconv.Atoi(payload)
	if err != nil || choice < 1 || choice > len(s.lastFind.matches) {
		return s.reply(-1, fmt.Sprintf("error: choose a table between 1 and %d", len(s.lastFind.matches)))
	}

	table := s.lastFind.matches[choice-1]
	r, err := s.allocator.BookTable(ctx, s.lastFind.req, table)
	switch {
	case errors.Is(err, ledger.ErrSlotTaken):
		s.lastFind = nil
		return s.reply(-1, msgSlotGone)
	case err != nil:
		s.log.WithError(err).Error("book_failed")
		return s.reply(-1, msgStoreError)
	}
	s.lastFind = nil
	return s.reply(r.Code, fmt.Sprintf("%d %s %s", r.Code, table.Room, table.ID))
}

func (s *session) handleCheck(ctx context.Context, payload string) error {
	var surname string
	var code int
	if _, err := fmt.Sscanf(payload, "%s %d", &surname, &code); err != nil {
		s.log.Warn("malformed_check_request")
		return s.reply(-1, "error: expected check <surname> <code>")
	}

	r, err := s.allocator.FindReservation(ctx, surname, code)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return s.reply(0, msgNoReservation)
	case err != nil:
		s.log.WithError(err).Error("check_failed")
		return s.reply(-1, msgStoreError)
	}

	s.auth = &r
	return s.reply(r.Code, fmt.Sprintf("%s %s %s", r.TableID, r.Date, r.Hour))
}

func (s *session) handleOrder(ctx context.Context, payload string) error {
	if s.auth == nil {
		return s.reply(-1, msgCheckFirst)
	}
	course, items, ok := splitOrderPayload(payload)
	if !ok {
		s.log.Warn("malformed_order_request")
		return s.reply(-1, "error: expected order <course>: <code-quantity ...>")
	}

	_, unknown, err := s.orders.PlaceOrder(ctx, s.auth.Code, s.auth.TableID, course, items)
	if err != nil {
		s.log.WithError(err).Error("order_failed")
		return s.reply(-1, msgStoreError)
	}
	msg := msgOrderSaved
	if len(unknown) > 0 {
		msg += " Note: not on the menu: " + strings.Join(unknown, ", ")
	}
	return s.reply(0, msg)
}

func (s *session) handleBill(ctx context.Context) error {
	if s.auth == nil {
		return s.reply(-1, msgCheckFirst)
	}
	total, err := s.orders.BillForTable(ctx, s.auth.Code)
	if err != nil {
		s.log.WithError(err).Error("bill_failed")
		return s.reply(-1, msgStoreError)
	}
	return s.reply(total)
}

func (s *session) handleTake(ctx context.Context) error {
	o, err := s.orders.NextForKitchen(ctx)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return s.reply(0, msgNoWaiting)
	case err != nil:
		s.log.WithError(err).Error("take_failed")
		return s.reply(-1, msgStoreError)
	}
	return s.reply(1, fmt.Sprintf("%d %s %s %s", o.ReservationCode, o.TableID, o.Course, o.Items))
}

func (s *session) handleReady(ctx context.Context, payload string) error {
	var code int
	var course string
	if _, err := fmt.Sscanf(payload, "%d %s", &code, &course); err != nil {
		s.log.Warn("malformed_ready_request")
		return s.reply(-1, "error: expected ready <reservation code> <course>")
	}

	err := s.orders.MarkCourseServed(ctx, code, course)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return s.reply(0, msgNotChanged)
	case err != nil:
		s.log.WithError(err).Error("ready_failed")
		return s.reply(-1, msgStoreError)
	}
	return s.reply(1, msgServed)
}

func (s *session) handleShow(ctx context.Context) error {
	inPrep, err := s.orders.InPreparation(ctx)
	if err != nil {
		s.log.WithError(err).Error("show_failed")
		return s.reply(-1, msgStoreError)
	}
	if len(inPrep) == 0 {
		return s.reply(0, msgNoPreparing)
	}

	lines := make([]string, 0, len(inPrep)+1)
	lines = append(lines, strconv.Itoa(len(inPrep)))
	for _, o := range inPrep {
		lines = append(lines, fmt.Sprintf("%s %s %s", o.TableID, o.Course, o.Items))
	}
	return s.reply(1, lines...)
}

func (s *session) reply(code int, lines ...string) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return writeReply(s.conn, code, lines...)
}

// splitOrderPayload parses "course: free text" into its parts.
func splitOrderPayload(payload string) (course, items string, ok bool) {
	rawCourse, rawItems, found := strings.Cut(payload, ":")
	course = strings.TrimSpace(rawCourse)
	items = strings.TrimSpace(rawItems)
	if !found || course == "" || items == "" {
		return "", "", false
	}
	return course, items, true
}
