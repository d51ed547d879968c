//go:build !windows

package hcs

// NewAPI returns ErrUnsupportedPlatform outside Windows.
func NewAPI() (API, error) {
	return nil, ErrUnsupportedPlatform
}
