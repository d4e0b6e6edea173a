package collab

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogotex/collabedit/internal/document"
	"github.com/gogotex/collabedit/internal/document/repository"
	"github.com/gogotex/collabedit/pkg/logger"
	"github.com/gogotex/collabedit/pkg/metrics"
	"go.uber.org/zap"
)

// Peer is one live transport connection as seen by the router.
// Send must not block; it reports false when the message was dropped.
type Peer interface {
	ID() string
	Send(Outbound) bool
}

// Gateway is the slice of the document service the router persists through.
type Gateway interface {
	GetOrCreate(ctx context.Context, id, defaultTitle string) (*document.Document, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	UpdateContent(ctx context.Context, id, content string) (*document.Document, error)
	UpdateTitle(ctx context.Context, id, title string) (*document.Document, error)
	AddCollaborator(ctx context.Context, id string, c document.Collaborator) error
}

// PresenceMirror receives membership changes after they were applied locally.
// Joined is also called again for a member whose state changed; Touch marks the
// document's presence as still live.
type PresenceMirror interface {
	Joined(ctx context.Context, documentID, connID string, u User) error
	Left(ctx context.Context, documentID, connID string) error
	Touch(ctx context.Context, documentID string) error
}

// Archiver stores the last snapshot of a document whose room emptied.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, d *document.Document) error
}

type Option func(*Router)

func WithLogger(l *zap.Logger) Option { return func(r *Router) { r.log = l } }

func WithPresence(p PresenceMirror) Option { return func(r *Router) { r.presence = p } }

func WithArchive(a Archiver) Option { return func(r *Router) { r.archive = a } }

func WithClock(now func() time.Time) Option { return func(r *Router) { r.now = now } }

// Router owns the connection and room registries for one process and applies inbound
// events to them. Events of one connection must be handed in sequentially; different
// connections may call in parallel. Content and title changes are admitted in order and
// then persisted on the connection's write lane, so Handle returns before the write
// completes and later relays from the same connection are not held behind it.
type Router struct {
	docs     Gateway
	presence PresenceMirror
	archive  Archiver
	log      *zap.Logger
	now      func() time.Time

	// mu serializes compound registry operations and snapshot-and-enqueue broadcasts.
	mu    sync.Mutex
	conns *ConnectionRegistry
	rooms *RoomRegistry
	peers map[string]Peer
	lanes map[string]*writeLane

	// background tracks queued writes and snapshot uploads for Wait.
	background sync.WaitGroup
}

func NewRouter(docs Gateway, opts ...Option) *Router {
	r := &Router{
		docs:  docs,
		log:   logger.L(),
		now:   time.Now,
		conns: NewConnectionRegistry(),
		rooms: NewRoomRegistry(),
		peers: make(map[string]Peer),
		lanes: make(map[string]*writeLane),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.Named("collab")
	return r
}

func (r *Router) recoverEvent(connID, event string) {
	if p := recover(); p != nil {
		r.log.Error("event handler panicked",
			zap.String("conn", connID), zap.String("event", event), zap.Any("panic", p))
	}
}

func (r *Router) withLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Attach makes p addressable. It does not join any room.
func (r *Router) Attach(p Peer) {
	r.withLock(func() { r.peers[p.ID()] = p })
	metrics.ActiveConnections.Inc()
	r.log.Debug("connection attached", zap.String("conn", p.ID()))
}

// HandleRaw decodes one wire frame and dispatches it. Malformed frames are answered
// with an error event to the sender only.
func (r *Router) HandleRaw(ctx context.Context, connID string, raw []byte) {
	ev, err := Decode(raw)
	if err != nil {
		r.reject(connID, "invalid", err)
		return
	}
	r.Handle(ctx, connID, ev)
}

// Handle applies one decoded event. A panic inside a handler is logged and contained
// to that event.
func (r *Router) Handle(ctx context.Context, connID string, ev Inbound) {
	defer r.recoverEvent(connID, ev.Name())
	// Persistence must not be cut short when the connection goes away mid-write.
	ctx = context.WithoutCancel(ctx)

	switch e := ev.(type) {
	case *JoinDocument:
		r.join(ctx, connID, e)
	case *TextChange:
		r.textChange(ctx, connID, e)
	case *TitleChange:
		r.titleChange(ctx, connID, e)
	case *CursorPosition:
		r.relay(connID, e, func(u User) Outbound {
			return Outbound{Event: EventCursorMoved, Data: CursorMoved{User: u, Position: e.Position}}
		})
	case *UserTyping:
		r.typing(ctx, connID, e)
	case *FormatText:
		r.relay(connID, e, func(u User) Outbound {
			return Outbound{Event: EventFormatApplied, Data: FormatApplied{FormatType: e.FormatType, FormatValue: e.FormatValue, User: u}}
		})
	case *LeaveDocument:
		r.leave(ctx, connID, e)
	default:
		r.reject(connID, "invalid", invalid(fmt.Sprintf("unsupported event %T", ev)))
	}
}

// Disconnect removes the connection from its room, notifies the remaining peers and
// forgets the connection. Calling it twice is harmless.
func (r *Router) Disconnect(ctx context.Context, connID string) {
	ctx = context.WithoutCancel(ctx)
	var (
		conn       Connection
		registered bool
		remaining  = -1
		attached   bool
	)
	r.withLock(func() {
		_, attached = r.peers[connID]
		delete(r.peers, connID)
		// queued writes still run; the lane goroutine exits once drained
		delete(r.lanes, connID)
		conn, registered = r.conns.Lookup(connID)
		if registered && conn.DocumentID != "" {
			remaining = r.leaveRoomLocked(conn)
		}
		r.conns.Unregister(connID)
		metrics.ActiveRooms.Set(float64(r.rooms.Rooms()))
	})
	if attached {
		metrics.ActiveConnections.Dec()
	}
	if remaining >= 0 {
		r.afterLeave(ctx, conn, remaining)
	}
	r.log.Debug("connection detached", zap.String("conn", connID))
}

// Members is the live presence list of a document.
func (r *Router) Members(documentID string) []User {
	return r.rooms.Members(documentID)
}

// Connections is the number of attached connections.
func (r *Router) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Wait blocks until queued writes and snapshot uploads started so far have finished.
func (r *Router) Wait() {
	r.background.Wait()
}

// RefreshPresence rewrites every live member into the presence mirror, restoring entries
// whose key expired while the room stayed open.
func (r *Router) RefreshPresence(ctx context.Context) {
	if r.presence == nil {
		return
	}
	for _, m := range r.rooms.All() {
		if err := r.presence.Joined(ctx, m.DocumentID, m.ConnID, m.User); err != nil {
			r.log.Warn("presence refresh failed", zap.String("document", m.DocumentID), zap.Error(err))
			return
		}
	}
}

// KeepPresenceAlive calls RefreshPresence every interval until ctx is done.
func (r *Router) KeepPresenceAlive(ctx context.Context, interval time.Duration) {
	if r.presence == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshPresence(ctx)
		}
	}
}

func (r *Router) join(ctx context.Context, connID string, e *JoinDocument) {
	user := normalizeUser(*e.User, connID, r.now())
	var (
		prev      Connection
		remaining = -1
	)
	r.withLock(func() {
		if c, ok := r.conns.Lookup(connID); ok && c.DocumentID != "" && c.DocumentID != e.DocumentID {
			prev = c
			remaining = r.leaveRoomLocked(c)
		}
		r.conns.Register(connID, user, e.DocumentID)
		r.rooms.Join(e.DocumentID, connID, user)
		metrics.ActiveRooms.Set(float64(r.rooms.Rooms()))
	})
	if remaining >= 0 {
		r.afterLeave(ctx, prev, remaining)
	}

	doc, err := r.docs.GetOrCreate(ctx, e.DocumentID, "")
	if err != nil {
		metrics.PersistFailures.WithLabelValues("get-or-create").Inc()
		r.log.Error("failed to load document",
			zap.String("conn", connID), zap.String("document", e.DocumentID), zap.Error(err))
		r.withLock(func() {
			if c, ok := r.conns.Lookup(connID); ok && c.DocumentID == e.DocumentID {
				r.rooms.Leave(e.DocumentID, connID)
				r.conns.Unregister(connID)
				metrics.ActiveRooms.Set(float64(r.rooms.Rooms()))
			}
			r.sendLocked(connID, Outbound{Event: EventError, Data: ErrorMessage{Message: "Failed to join document"}})
		})
		return
	}

	if err := r.docs.AddCollaborator(ctx, e.DocumentID, document.Collaborator{
		Username: user.Username,
		Color:    user.Color,
		JoinedAt: user.JoinedAt,
	}); err != nil {
		metrics.PersistFailures.WithLabelValues("add-collaborator").Inc()
		r.log.Warn("failed to record collaborator",
			zap.String("document", e.DocumentID), zap.String("user", user.Username), zap.Error(err))
	}

	joined := false
	r.withLock(func() {
		// The connection may have left or disconnected while the document loaded.
		if !r.rooms.Contains(e.DocumentID, connID) {
			return
		}
		joined = true
		members := r.rooms.Members(e.DocumentID)
		r.sendLocked(connID, Outbound{Event: EventDocumentLoaded, Data: DocumentLoaded{
			Document: DocumentView{ID: doc.ID, Title: doc.Title, Content: doc.Content, LastModified: doc.LastModified},
			Users:    members,
		}})
		r.broadcastLocked(e.DocumentID, connID, Outbound{Event: EventUserJoined, Data: Presence{User: user, Users: members}})
	})
	if !joined {
		return
	}
	metrics.EventsHandled.WithLabelValues(EventJoinDocument).Inc()
	r.log.Info("user joined document",
		zap.String("conn", connID), zap.String("document", e.DocumentID), zap.String("user", user.Username))
	if r.presence != nil {
		if err := r.presence.Joined(ctx, e.DocumentID, connID, user); err != nil {
			r.log.Warn("presence mirror join failed", zap.String("document", e.DocumentID), zap.Error(err))
		}
	}
}

func (r *Router) textChange(ctx context.Context, connID string, e *TextChange) {
	r.withLock(func() {
		c, ok := r.memberLocked(connID, e)
		if !ok {
			return
		}
		r.enqueueLocked(connID, EventTextChange, func() {
			if !r.persist(ctx, "update-content", e.DocumentID, func() error {
				_, err := r.docs.UpdateContent(ctx, e.DocumentID, *e.Content)
				return err
			}) {
				return
			}
			out := Outbound{Event: EventTextUpdated, Data: TextUpdated{
				Content:   *e.Content,
				User:      c.User,
				Timestamp: formatTimestamp(r.now()),
			}}
			r.withLock(func() { r.broadcastLocked(e.DocumentID, connID, out) })
			metrics.EventsHandled.WithLabelValues(EventTextChange).Inc()
			r.touchPresence(ctx, e.DocumentID)
		})
	})
}

func (r *Router) titleChange(ctx context.Context, connID string, e *TitleChange) {
	r.withLock(func() {
		c, ok := r.memberLocked(connID, e)
		if !ok {
			return
		}
		if err := repository.ValidateTitle(*e.Title); err != nil {
			r.rejectLocked(connID, "invalid", invalid(err.Error()))
			return
		}
		r.enqueueLocked(connID, EventTitleChange, func() {
			if !r.persist(ctx, "update-title", e.DocumentID, func() error {
				_, err := r.docs.UpdateTitle(ctx, e.DocumentID, *e.Title)
				return err
			}) {
				return
			}
			out := Outbound{Event: EventTitleUpdated, Data: TitleUpdated{Title: *e.Title, User: c.User}}
			r.withLock(func() { r.broadcastLocked(e.DocumentID, connID, out) })
			metrics.EventsHandled.WithLabelValues(EventTitleChange).Inc()
			r.touchPresence(ctx, e.DocumentID)
		})
	})
}

// enqueueLocked appends job to connID's write lane. Jobs of one connection run in order.
func (r *Router) enqueueLocked(connID, event string, job func()) {
	l, ok := r.lanes[connID]
	if !ok {
		l = &writeLane{}
		r.lanes[connID] = l
	}
	r.background.Add(1)
	l.push(func() {
		defer r.background.Done()
		defer r.recoverEvent(connID, event)
		job()
	})
}

func (r *Router) touchPresence(ctx context.Context, documentID string) {
	if r.presence == nil {
		return
	}
	if err := r.presence.Touch(ctx, documentID); err != nil {
		r.log.Warn("presence mirror refresh failed", zap.String("document", documentID), zap.Error(err))
	}
}

// persist runs a gateway write. A missing document is logged and treated as success so
// peers still converge; any other failure drops the broadcast.
func (r *Router) persist(ctx context.Context, op, documentID string, write func() error) bool {
	err := write()
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrNotFound):
		r.log.Warn("document vanished during update", zap.String("op", op), zap.String("document", documentID))
		return true
	default:
		metrics.PersistFailures.WithLabelValues(op).Inc()
		r.log.Error("failed to persist document change",
			zap.String("op", op), zap.String("document", documentID), zap.Error(err))
		return false
	}
}

func (r *Router) relay(connID string, e Inbound, build func(User) Outbound) {
	r.withLock(func() {
		c, ok := r.memberLocked(connID, e)
		if !ok {
			return
		}
		r.broadcastLocked(e.Document(), connID, build(c.User))
		metrics.EventsHandled.WithLabelValues(e.Name()).Inc()
	})
}

func (r *Router) typing(ctx context.Context, connID string, e *UserTyping) {
	var (
		u  User
		ok bool
	)
	r.withLock(func() {
		var c Connection
		c, ok = r.memberLocked(connID, e)
		if !ok {
			return
		}
		u = c.User
		u.IsTyping = *e.IsTyping
		r.conns.Register(connID, u, c.DocumentID)
		r.rooms.Join(c.DocumentID, connID, u)
		r.broadcastLocked(e.DocumentID, connID, Outbound{Event: EventTypingIndicator, Data: TypingIndicator{User: u, IsTyping: u.IsTyping}})
		metrics.EventsHandled.WithLabelValues(EventUserTyping).Inc()
	})
	if !ok || r.presence == nil {
		return
	}
	if err := r.presence.Joined(ctx, e.DocumentID, connID, u); err != nil {
		r.log.Warn("presence mirror typing update failed", zap.String("document", e.DocumentID), zap.Error(err))
	}
}

func (r *Router) leave(ctx context.Context, connID string, e *LeaveDocument) {
	var (
		conn      Connection
		remaining = -1
	)
	r.withLock(func() {
		c, ok := r.memberLocked(connID, e)
		if !ok {
			return
		}
		conn = c
		remaining = r.leaveRoomLocked(c)
		r.conns.Register(connID, c.User, "")
		metrics.ActiveRooms.Set(float64(r.rooms.Rooms()))
	})
	if remaining < 0 {
		return
	}
	metrics.EventsHandled.WithLabelValues(EventLeaveDocument).Inc()
	r.afterLeave(ctx, conn, remaining)
}

// leaveRoomLocked removes c from its room, tells the remaining members and returns
// how many are left.
func (r *Router) leaveRoomLocked(c Connection) int {
	remaining := r.rooms.Leave(c.DocumentID, c.ConnID)
	members := r.rooms.Members(c.DocumentID)
	r.broadcastLocked(c.DocumentID, c.ConnID, Outbound{Event: EventUserLeft, Data: Presence{User: c.User, Users: members}})
	return remaining
}

func (r *Router) afterLeave(ctx context.Context, c Connection, remaining int) {
	r.log.Info("user left document",
		zap.String("conn", c.ConnID), zap.String("document", c.DocumentID), zap.Int("remaining", remaining))
	if r.presence != nil {
		if err := r.presence.Left(ctx, c.DocumentID, c.ConnID); err != nil {
			r.log.Warn("presence mirror leave failed", zap.String("document", c.DocumentID), zap.Error(err))
		}
	}
	if remaining == 0 && r.archive != nil {
		r.background.Add(1)
		go func() {
			defer r.background.Done()
			r.archiveSnapshot(ctx, c.DocumentID)
		}()
	}
}

func (r *Router) archiveSnapshot(ctx context.Context, documentID string) {
	doc, err := r.docs.Get(ctx, documentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.log.Warn("snapshot archive skipped", zap.String("document", documentID), zap.Error(err))
		}
		return
	}
	if err := r.archive.ArchiveSnapshot(ctx, doc); err != nil {
		metrics.PersistFailures.WithLabelValues("archive").Inc()
		r.log.Warn("snapshot archive failed", zap.String("document", documentID), zap.Error(err))
		return
	}
	r.log.Debug("snapshot archived", zap.String("document", documentID))
}

func (r *Router) memberLocked(connID string, e Inbound) (Connection, bool) {
	c, ok := r.conns.Lookup(connID)
	if !ok || c.DocumentID != e.Document() || !r.rooms.Contains(e.Document(), connID) {
		metrics.EventsRejected.WithLabelValues("not-member").Inc()
		r.log.Debug("event from non-member dropped",
			zap.String("conn", connID), zap.String("event", e.Name()), zap.String("document", e.Document()))
		return Connection{}, false
	}
	return c, true
}

func (r *Router) reject(connID, reason string, err error) {
	r.withLock(func() { r.rejectLocked(connID, reason, err) })
}

func (r *Router) rejectLocked(connID, reason string, err error) {
	metrics.EventsRejected.WithLabelValues(reason).Inc()
	r.log.Debug("event rejected", zap.String("conn", connID), zap.Error(err))
	msg := err.Error()
	var ve *ValidationError
	if errors.As(err, &ve) {
		msg = ve.Reason
	}
	r.sendLocked(connID, Outbound{Event: EventError, Data: ErrorMessage{Message: msg}})
}

func (r *Router) sendLocked(connID string, o Outbound) {
	p, ok := r.peers[connID]
	if !ok {
		return
	}
	if !p.Send(o) {
		metrics.OutboundDropped.Inc()
		r.log.Warn("outbound buffer full, message dropped", zap.String("conn", connID), zap.String("event", o.Event))
	}
}

// broadcastLocked delivers o to every member of documentID except the sender.
func (r *Router) broadcastLocked(documentID, except string, o Outbound) {
	for _, id := range r.rooms.Conns(documentID) {
		if id == except {
			continue
		}
		r.sendLocked(id, o)
	}
}
