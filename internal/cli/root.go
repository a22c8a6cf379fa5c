package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	if a.isUnlocked() {
		return "(unlocked)"
	}
	return "(locked)"
}

// Root greets the user, starts the auto-lock watcher, and runs the REPL until
// the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to pinvault (type 'help' for commands)")

	ok, err := a.auth.IsInitialized(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	if !ok {
		fmt.Println("No vault found. Run 'init' to create one.")
	}

	go func() {
		a.StartAutoLockWatcher(ctx, a.config.AutoLockAfter, a.config.AutoLockCheckInterval)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
