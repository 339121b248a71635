//go:build linux

package platform

import "github.com/1broseidon/winstate/internal/x11"

func openX11() (ViewportProvider, func() error, error) {
	p, err := x11.NewProvider()
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}
