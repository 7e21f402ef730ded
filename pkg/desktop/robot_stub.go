//go:build !cgo

package desktop

// NewRobotDriver returns ErrUnsupported on builds without cgo.
func NewRobotDriver() (Driver, error) {
	return nil, ErrUnsupported
}
