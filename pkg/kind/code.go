package kind

import "context"

// CodeFn is a user-supplied callback that carries out one direction of a
// Code migration against the live connection.
type CodeFn func(ctx context.Context, conn Conn) error

// Code is the code migration kind: its payload is two callbacks rather
// than SQL text, letting migrations run arbitrary Go logic while still
// obeying the Store's transactional discipline.
type Code struct {
	UpFn   CodeFn
	DownFn CodeFn
}

// NewCode constructs a Code kind from up and down callbacks. Either may be
// nil to indicate that side is absent.
func NewCode(up, down CodeFn) *Code {
	return &Code{UpFn: up, DownFn: down}
}

func (c *Code) Up(ctx context.Context, conn Conn) error {
	if c.UpFn == nil {
		return ErrNoSideEffect
	}
	return c.UpFn(ctx, conn)
}

func (c *Code) Down(ctx context.Context, conn Conn) error {
	if c.DownFn == nil {
		return ErrNoSideEffect
	}
	return c.DownFn(ctx, conn)
}
