package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/config"
	"github.com/dmitrijs2005/pinvault/internal/vault"
)

// App holds the interactive session state: the loaded configuration, the two
// vault services, and the stdin reader shared by all prompts.
type App struct {
	config *config.Config
	auth   *vault.AuthService
	keys   *vault.KeyService
	reader *bufio.Reader
}

// NewApp wires an App over already-constructed vault services.
func NewApp(c *config.Config, auth *vault.AuthService, keys *vault.KeyService) *App {
	return &App{config: c, auth: auth, keys: keys, reader: bufio.NewReader(os.Stdin)}
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isUnlocked() bool {
	return a.auth.SessionState().Unlocked
}

// StartAutoLockWatcher polls the session on a ticker and locks the vault once
// the idle time crosses the configured threshold. It returns when ctx is
// cancelled.
func (a *App) StartAutoLockWatcher(ctx context.Context, after, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st := a.auth.SessionState()
			if st.Unlocked && st.SinceActivity >= after {
				a.auth.Lock(ctx)
				log.Println("Vault locked after inactivity")
			}

		case <-ctx.Done():
			return
		}
	}
}
