package server

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Scrimzay/seagulltown/internal/journal"
	"github.com/Scrimzay/seagulltown/internal/protocol"
	"github.com/Scrimzay/seagulltown/internal/world"
)

// session is one connected client for the lifetime of its socket.
type session struct {
	id     string
	conn   *websocket.Conn
	client *world.Client
	chat   *rate.Limiter // nil = unlimited
}

// HandleWebsocket upgrades the request and runs the session until the
// socket closes. Sessions can't be resumed; a reconnect is a new player.
func (s *Server) HandleWebsocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.log.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		sess, err := s.open(conn)
		if err != nil {
			s.log.Warn("session setup failed", zap.Error(err))
			_ = conn.Close()
			return
		}

		s.readLoop(sess)
		s.close(sess)
	}
}

// open runs the accept sequence: new id, spawn the player, welcome frame,
// then register for broadcasts and announce the join.
func (s *Server) open(conn *websocket.Conn) (*session, error) {
	if s.opts.MaxFrameBytes > 0 {
		conn.SetReadLimit(s.opts.MaxFrameBytes)
	}

	id := s.opts.NewID()
	if _, err := s.store.AddPlayer(id); err != nil {
		return nil, err
	}

	sess := &session{
		id:     id,
		conn:   conn,
		client: s.broadcaster.NewClient(id, conn),
	}
	if s.opts.ChatRate > 0 {
		sess.chat = rate.NewLimiter(rate.Limit(s.opts.ChatRate), s.opts.ChatBurst)
	}

	if err := sess.client.WriteJSON(protocol.Welcome{ID: id, World: s.store.Layout()}); err != nil {
		_ = sess.client.Close()
		s.store.RemovePlayer(id)
		// a tick may already have shown the half-joined player to others
		s.broadcaster.BroadcastState("")
		return nil, err
	}

	s.broadcaster.Register(sess.client)
	s.broadcaster.Relay(id, protocol.JoinEvent{Join: id})
	s.broadcaster.BroadcastState("")

	s.log.Info("player joined", zap.String("player", id), zap.Int("online", s.broadcaster.ClientCount()))
	s.record(journal.Entry{Kind: journal.KindJoin, Player: id})
	return sess, nil
}

func (s *Server) readLoop(sess *session) {
	for {
		msgType, msg, err := sess.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.Debug("read ended", zap.String("player", sess.id), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := protocol.Decode(msg)
		if err != nil {
			if !errors.Is(err, protocol.ErrEmptyFrame) {
				s.log.Debug("dropping frame", zap.String("player", sess.id), zap.Error(err))
			}
			continue
		}
		if len(frame.Unknown) > 0 {
			s.log.Debug("unknown frame keys", zap.String("player", sess.id), zap.Strings("keys", frame.Unknown))
		}
		if frame.Chat != nil && sess.chat != nil && !sess.chat.Allow() {
			s.log.Debug("chat rate limited", zap.String("player", sess.id))
			frame.Chat = nil
		}

		s.dispatcher.Handle(sess.id, frame)
	}
}

// close tears a session down and tells everyone left.
func (s *Server) close(sess *session) {
	s.broadcaster.Unregister(sess.id)
	s.store.RemovePlayer(sess.id)
	s.broadcaster.BroadcastState("")

	s.log.Info("player left", zap.String("player", sess.id), zap.Int("online", s.broadcaster.ClientCount()))
	s.record(journal.Entry{Kind: journal.KindLeave, Player: sess.id})
}

func (s *Server) record(e journal.Entry) {
	if err := s.journal.Record(e); err != nil {
		s.log.Warn("journal write failed", zap.Error(err))
	}
}
