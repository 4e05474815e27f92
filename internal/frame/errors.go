package frame

import "errors"

// ErrFrameTooLarge is returned by Read when a frame's declared length
// exceeds the caller's configured maximum. The stream is desynchronized
// at this point; the caller must close the connection.
var ErrFrameTooLarge = errors.New("frame: length exceeds max frame size")

// ErrBadType is returned by Read when the 1-byte type tag does not
// match any defined frame type. Like ErrFrameTooLarge, this is a
// protocol violation and the connection must be closed.
var ErrBadType = errors.New("frame: unknown frame type")
