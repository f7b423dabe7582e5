package identity

import (
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
)

const callbackPath = "/callback"

type callbackResult struct {
	code    string
	state   string
	errCode string
}

// callbackServer is a one-shot loopback listener for the OAuth redirect.
// Only the first callback is taken; later hits get the same page.
type callbackServer struct {
	app     *fiber.App
	ln      net.Listener
	results chan callbackResult
}

func newCallbackServer(ln net.Listener) *callbackServer {
	s := &callbackServer{
		ln: ln,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
		}),
		results: make(chan callbackResult, 1),
	}
	s.app.Get(callbackPath, s.handle)
	return s
}

func (s *callbackServer) handle(c *fiber.Ctx) error {
	result := callbackResult{
		code:    c.Query("code"),
		state:   c.Query("state"),
		errCode: c.Query("error"),
	}
	select {
	case s.results <- result:
	default:
	}

	if result.errCode != "" {
		return c.Status(fiber.StatusBadRequest).SendString("Sign-in was not completed. You can close this window.")
	}
	return c.SendString("Signed in. You can close this window.")
}

func (s *callbackServer) serve() {
	_ = s.app.Listener(s.ln)
}

// shutdown also closes the listener in case serve never got to run.
func (s *callbackServer) shutdown() {
	_ = s.app.ShutdownWithTimeout(2 * time.Second)
	_ = s.ln.Close()
}
