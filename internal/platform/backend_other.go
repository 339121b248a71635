//go:build !linux

package platform

import "fmt"

func openX11() (ViewportProvider, func() error, error) {
	return nil, nil, fmt.Errorf("x11 backend is only supported on linux")
}
