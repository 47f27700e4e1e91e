package mongodb

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

// Conn is a live database connection owned by the pool.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Database() Database
}

// Dialer creates a new connection. The pool dials lazily: a slot is only
// connected the first time it is acquired, and re-dialed after a poisoned
// connection is discarded.
type Dialer func(ctx context.Context) (Conn, error)

// Handle is a checked-out connection. It must be returned with Pool.Release
// on every exit path. Poison marks the connection fatally broken so the
// pool discards it instead of reusing it.
type Handle struct {
	conn     Conn
	poisoned bool
}

// Conn returns the underlying connection.
func (h *Handle) Conn() Conn { return h.conn }

// Poison marks the connection as fatally broken.
func (h *Handle) Poison() { h.poisoned = true }

// Pool is a bounded set of database connections. The number of concurrently
// checked-out handles never exceeds the configured size; Acquire blocks up
// to the acquire timeout when the pool is exhausted.
type Pool struct {
	dial           Dialer
	slots          chan *Handle // len == size; nil conn means "dial on demand"
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// NewPool creates a pool of size slots, all initially unconnected.
func NewPool(size int, acquireTimeout time.Duration, dial Dialer, logger *slog.Logger) *Pool {
	slots := make(chan *Handle, size)
	for i := 0; i < size; i++ {
		slots <- &Handle{}
	}
	return &Pool{
		dial:           dial,
		slots:          slots,
		acquireTimeout: acquireTimeout,
		logger:         logger,
	}
}

// Acquire checks out a connection, dialing if the slot is empty. It fails
// with domain.ErrBackendUnavailable when the pool stays exhausted past the
// acquire timeout, or when dialing fails.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	select {
	case h := <-p.slots:
		if h.conn != nil {
			return h, nil
		}
		conn, err := p.dial(ctx)
		if err != nil {
			// Return the empty slot so capacity is preserved.
			p.slots <- &Handle{}
			p.logger.Error("mongodb dial failed", "error", err)
			return nil, domain.NewDomainError("pool.acquire", domain.ErrBackendUnavailable, err.Error())
		}
		h.conn = conn
		return h, nil
	case <-ctx.Done():
		return nil, domain.NewDomainError("pool.acquire", domain.ErrBackendUnavailable, "connection pool exhausted")
	}
}

// Release returns a handle to the pool. Poisoned connections are closed and
// their slot reverts to unconnected, to be re-dialed on next acquire.
func (p *Pool) Release(h *Handle) {
	if h.poisoned && h.conn != nil {
		conn := h.conn
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := conn.Close(ctx); err != nil {
				p.logger.Warn("close poisoned connection", "error", err)
			}
		}()
		p.logger.Warn("discarded poisoned mongodb connection")
		p.slots <- &Handle{}
		return
	}
	p.slots <- h
}

// HealthCheck acquires a connection and pings the server.
func (p *Pool) HealthCheck(ctx context.Context) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(h)

	if err := h.conn.Ping(ctx); err != nil {
		h.Poison()
		return domain.NewDomainError("pool.health", domain.ErrBackendUnavailable, err.Error())
	}
	return nil
}

// Close drains the pool and closes every live connection. Acquire must not
// be called after Close.
func (p *Pool) Close(ctx context.Context) {
	for i := 0; i < cap(p.slots); i++ {
		select {
		case h := <-p.slots:
			if h.conn != nil {
				if err := h.conn.Close(ctx); err != nil {
					p.logger.Warn("close connection", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// clientConn adapts *mongo.Client to the Conn interface.
type clientConn struct {
	client *mongo.Client
	db     *mongo.Database
}

func (c *clientConn) Ping(ctx context.Context) error  { return c.client.Ping(ctx, nil) }
func (c *clientConn) Close(ctx context.Context) error { return c.client.Disconnect(ctx) }
func (c *clientConn) Database() Database              { return &mongoDatabase{db: c.db} }

// NewClientDialer returns a Dialer that connects a mongo client to the
// configured URI and verifies it with a ping.
func NewClientDialer(cfg config.MongoDBConfig, logger *slog.Logger) Dialer {
	return func(ctx context.Context) (Conn, error) {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("mongodb connected", "database", cfg.Database)
		return &clientConn{client: client, db: client.Database(cfg.Database)}, nil
	}
}
