package cli

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Init prompts for a new PIN twice and creates the vault. The vault is left
// locked; the user unlocks with a separate command.
//
// The PIN byte slices are securely wiped before returning.
func (a *App) Init(ctx context.Context) error {
	pin, err := getSecret("Choose a PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	confirm, err := getSecret("Repeat the PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pin, confirm) {
		log.Println("PINs do not match")
		return nil
	}

	if err := a.auth.Initialize(ctx, pin); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Println("Vault created. Run 'unlock' to open it.")
	return nil
}

// Unlock prompts for the PIN and opens the vault.
func (a *App) Unlock(ctx context.Context) error {
	pin, err := getSecret("Enter PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	if err := a.auth.Unlock(ctx, pin); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Println("Vault unlocked.")
	return nil
}

// Lock locks the vault immediately.
func (a *App) Lock(ctx context.Context) error {
	a.auth.Lock(ctx)
	fmt.Println("Vault locked.")
	return nil
}

// ChangePin prompts for the current PIN and a new PIN (twice) and rotates the
// vault to the new PIN.
func (a *App) ChangePin(ctx context.Context) error {
	oldPin, err := getSecret("Current PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPin)

	newPin, err := getSecret("New PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPin)

	confirm, err := getSecret("Repeat new PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(newPin, confirm) {
		log.Println("PINs do not match")
		return nil
	}

	if err := a.auth.ChangePin(ctx, oldPin, newPin); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Println("PIN changed.")
	return nil
}

// Reset asks for explicit confirmation and the PIN, then destroys the vault
// and everything stored in it.
func (a *App) Reset(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "This deletes every stored credential. Type 'yes' to continue", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Aborted.")
		return nil
	}

	pin, err := getSecret("Enter PIN to confirm", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	if err := a.auth.Reset(ctx, pin); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Println("Vault destroyed.")
	return nil
}

// Status prints whether the vault exists, its lock state, and the idle time.
func (a *App) Status(ctx context.Context) error {
	ok, err := a.auth.IsInitialized(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	if !ok {
		fmt.Println("Vault: not initialized")
		return nil
	}

	st := a.auth.SessionState()
	if st.Unlocked {
		fmt.Printf("Vault: unlocked, idle for %s\n", st.SinceActivity.Round(time.Second))
	} else {
		fmt.Println("Vault: locked")
	}
	return nil
}
