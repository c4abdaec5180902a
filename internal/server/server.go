package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Scrimzay/seagulltown/internal/journal"
	"github.com/Scrimzay/seagulltown/internal/world"
)

type Options struct {
	MaxFrameBytes int64
	ChatRate      float64 // lines per second, 0 = unlimited
	ChatBurst     int

	// NewID hands out player ids. Defaults to ULIDs.
	NewID func() string
}

// Server owns the websocket side of the game: accepting connections,
// running their read loops and routing frames into the store.
type Server struct {
	store       *world.Store
	broadcaster *world.Broadcaster
	dispatcher  *Dispatcher
	journal     journal.Recorder
	log         *zap.Logger
	opts        Options
	upgrader    websocket.Upgrader
}

func New(store *world.Store, broadcaster *world.Broadcaster, rec journal.Recorder, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = journal.Discard
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return ulid.Make().String() }
	}
	return &Server{
		store:       store,
		broadcaster: broadcaster,
		dispatcher:  NewDispatcher(store, broadcaster, rec, log),
		journal:     rec,
		log:         log.Named("server"),
		opts:        opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func SetupRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/ws", s.HandleWebsocket())
	r.GET("/healthz", s.healthHandler)
	r.GET("/world", s.worldHandler)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	counts := s.store.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"players":    counts.Players,
		"npcs":       counts.NPCs,
		"groundHats": counts.GroundHats,
	})
}

func (s *Server) worldHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Layout())
}

// requestLogger logs plain HTTP requests. Websocket sessions log their
// own lifecycle.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.IsWebsocket() {
			return
		}
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
