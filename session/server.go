package session

import (
	"math/big"
	"time"

	"github.com/est31/mimas-go/auth"
	"github.com/est31/mimas-go/config"
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/mapgen"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/servermap"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/transport"
	"github.com/est31/mimas-go/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// playerCountGauge and tickDuration are additive instrumentation
// (SPEC_FULL.md 1.1), not part of the wire protocol.
var (
	playerCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mimas_players_connected",
		Help: "Number of authenticated, connected players.",
	})
	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mimas_server_tick_seconds",
		Help:    "Wall-clock duration of one server main-loop tick.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(playerCountGauge, tickDuration)
}

// unauthConn is a connection that hasn't completed the login handshake yet.
type unauthConn struct {
	c     *conn
	state *auth.LoginState
}

// Server owns every piece of live game state: the set of connections in
// each lifecycle stage, the authoritative chunk cache, and the tick loop
// that drives generation, broadcast, and persistence. It is single
// threaded: every exported method that touches player/connection state is
// meant to be called from the goroutine running Run, matching the
// concurrency model's "server main thread owns all player state".
//
// Grounded on original_source/mimas-server/server.rs's Server<S>.
type Server struct {
	params         *gameparams.GameParams
	nameMap        *nameidmap.Map
	isSingleplayer bool
	cfg            config.Config
	authBack       auth.Backend
	smap           *servermap.Map
	thread         *mapgen.Thread

	unauth    []*unauthConn
	waitingKV map[world.PlayerID]*kvWaitingPlayer
	players   map[world.PlayerID]*player

	newConnCh chan *conn

	lastFrameTime      time.Time
	lastPosStorageTime time.Time
	lastFps            float64
}

// New constructs a Server. authBack may be nil only when singleplayer is
// true, matching the reference's Option<SqliteLocalAuth>.
func New(cfg config.Config, params *gameparams.GameParams, nm *nameidmap.Map, storageBack storage.Backend, authBack auth.Backend, singleplayer bool) *Server {
	thread := mapgen.NewThread(cfg.MapgenSeed, params, storageBack)
	smap := servermap.New(thread)

	srv := &Server{
		params:         params,
		nameMap:        nm,
		isSingleplayer: singleplayer,
		cfg:            cfg,
		authBack:       authBack,
		smap:           smap,
		thread:         thread,
		waitingKV:      make(map[world.PlayerID]*kvWaitingPlayer),
		players:        make(map[world.PlayerID]*player),
		newConnCh:      make(chan *conn, 64),
		lastFrameTime:  time.Time{},
	}
	smap.RegisterOnChange(srv.onChunkChange)
	return srv
}

// AcceptConn upgrades ws into a tracked connection and enqueues it for the
// main loop to pick up on its next tick. Safe to call from any goroutine
// (e.g. an HTTP upgrade handler), matching the reference's
// srv_socket.try_open_conn() poll running the other direction.
func (s *Server) AcceptConn(tc *transport.Conn) {
	s.newConnCh <- newConn(tc)
}

// Run executes the main loop until stop is closed. It never returns
// errors: client-originated failures close that connection and nothing
// else, matching the propagation policy in SPEC_FULL.md 7.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		s.tick()
	}
}

func (s *Server) tick() {
	start := time.Now()

	s.genChunksForMovedPlayers()
	s.sendChunksToPlayers()
	s.sendPositionsToPlayers()
	s.smap.Tick()
	s.updateFPS()
	s.drainNewConns()
	s.handleAuthMsgs()
	s.handlePlayersWaitingForKV()
	s.storePlayerKVs()

	for _, m := range s.getMsgs() {
		s.dispatch(m.id, m.env)
	}

	playerCountGauge.Set(float64(len(s.players)))
	tickDuration.Observe(time.Since(start).Seconds())
}

func (s *Server) drainNewConns() {
	for {
		select {
		case c := <-s.newConnCh:
			if s.isSingleplayer {
				s.addPlayerWaiting(c, world.Singleplayer, "singleplayer")
			} else {
				s.unauth = append(s.unauth, &unauthConn{c: c, state: auth.NewLoginState()})
			}
		default:
			return
		}
	}
}

// updateFPS implements the exponential-moving-average throttle from
// SPEC_FULL.md 4.8.1, reproduced from
// original_source/mimas-server/server.rs's update_fps.
func (s *Server) updateFPS() {
	const eps = 0.1
	const fpsTgt = 60.0

	now := time.Now()
	if s.lastFrameTime.IsZero() {
		s.lastFrameTime = now
		return
	}
	frameDur := now.Sub(s.lastFrameTime)
	s.lastFrameTime = now

	instFps := fpsTgt * 100.0
	if frameDur.Seconds() > 0 {
		instFps = 1.0 / frameDur.Seconds()
	}
	s.lastFps = s.lastFps*(1-eps) + instFps*eps

	if s.lastFps > 1.5*fpsTgt {
		overshoot := (1.0 / fpsTgt) - frameDur.Seconds()
		if overshoot > 0 {
			time.Sleep(time.Duration(overshoot * 0.7 * float64(time.Second)))
		}
	}
}

func (s *Server) genChunksForMovedPlayers() {
	seen := make(map[world.ChunkPos]bool)
	for _, p := range s.players {
		cp := world.ChunkOf(p.pos.Pos())
		if cp == p.lastChunkAt || seen[cp] {
			continue
		}
		seen[cp] = true
		min, max := servermap.ChunkPositionsAround(p.pos.Pos(), s.cfg.MapgenRadiusXY, s.cfg.MapgenRadiusZ)
		s.smap.GenChunksInArea(min, max)
	}
}

// onChunkChange is servermap's OnChangeFunc: it streams the changed chunk
// to every connected player immediately, matching the reference's
// register_on_change closure.
func (s *Server) onChunkChange(pos world.ChunkPos, data *world.ChunkData) {
	msg := toWireChunk(pos, data)
	var dead []world.PlayerID
	for id, p := range s.players {
		p.sentChunks[pos] = true
		if err := p.c.send(TagChunkUpdated, msg); err != nil {
			dead = append(dead, id)
		}
	}
	s.closePlayers(dead)
}

func (s *Server) closePlayers(ids []world.PlayerID) {
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			p.c.close()
			delete(s.players, id)
		}
	}
}

func (s *Server) playerIDKV(id world.PlayerID) storage.PlayerIDKV {
	return storage.PlayerIDKV{IDSrc: id.Src, ID: id.ID}
}

func aPubFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

func logf() *logrus.Entry {
	return logrus.WithField("component", "session")
}
