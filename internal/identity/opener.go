package identity

import (
	"context"
	"os/exec"
	"runtime"

	"campaign-session/internal/pkg/logger"
)

// URLOpener shows the provider consent page to the user.
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

type URLOpenerFunc func(ctx context.Context, url string) error

func (f URLOpenerFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// BrowserOpener launches the system browser and always logs the URL so a
// headless user can paste it by hand.
type BrowserOpener struct {
	log logger.ILogger
}

func NewBrowserOpener(log logger.ILogger) *BrowserOpener {
	return &BrowserOpener{log: log}
}

func (o *BrowserOpener) Open(_ context.Context, url string) error {
	o.log.Info("IdentityClient", "Open this URL to sign in", map[string]interface{}{"url": url})

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		o.log.Warn("IdentityClient", "Could not launch a browser", map[string]interface{}{"error": err.Error()})
		return nil
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
