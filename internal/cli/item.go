package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/models"
)

// Add prompts for the credential fields and stores a new entry. The secret
// value is read without echo and wiped before returning.
func (a *App) Add(ctx context.Context) error {
	appName, err := getSimpleText(a.reader, "Application name", os.Stdout)
	if err != nil {
		return err
	}
	keyName, err := getSimpleText(a.reader, "Key name", os.Stdout)
	if err != nil {
		return err
	}
	apiURL, err := getSimpleText(a.reader, "API URL (optional)", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	value, err := getSecret("Secret value", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(value)

	id, err := a.keys.Create(ctx, appName, keyName, value, apiURL, description)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Printf("Stored %s/%s (id %s)\n", appName, keyName, id)
	return nil
}

// List prints metadata for every stored credential. Secrets stay encrypted.
func (a *App) List(ctx context.Context) error {
	items, err := a.keys.List(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	printItems(items)
	return nil
}

// Search prints metadata for credentials matching query.
func (a *App) Search(ctx context.Context, query string) error {
	items, err := a.keys.Search(ctx, query)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	printItems(items)
	return nil
}

func printItems(items []models.CredentialMetadata) {
	if len(items) == 0 {
		fmt.Println("No credentials.")
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("%s  %s/%s", item.ID, item.AppName, item.KeyName)
		if item.Description != "" {
			line += "  " + item.Description
		}
		fmt.Println(line)
	}
}

// Show decrypts a single credential and prints it, secret included.
func (a *App) Show(ctx context.Context) error {
	appName, err := getSimpleText(a.reader, "Application name", os.Stdout)
	if err != nil {
		return err
	}
	keyName, err := getSimpleText(a.reader, "Key name", os.Stdout)
	if err != nil {
		return err
	}

	cred, err := a.keys.Get(ctx, appName, keyName)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	defer common.WipeByteArray(cred.Value)

	fmt.Printf("%s/%s\n", cred.AppName, cred.KeyName)
	if cred.APIURL != "" {
		fmt.Printf("URL: %s\n", cred.APIURL)
	}
	if cred.Description != "" {
		fmt.Printf("Description: %s\n", cred.Description)
	}
	fmt.Printf("Value: %s\n", cred.Value)
	return nil
}

// Update prompts for a credential id and new field values. Empty answers keep
// the current values; a new secret value triggers re-encryption under a fresh
// entry salt.
func (a *App) Update(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Credential id to update", os.Stdout)
	if err != nil {
		return err
	}

	apiURL, err := getSimpleText(a.reader, "New API URL (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "New description (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	value, err := getSecret("New secret value (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(value)

	patch := models.CredentialPatch{}
	if apiURL != "" {
		patch.APIURL = &apiURL
	}
	if description != "" {
		patch.Description = &description
	}
	if len(value) > 0 {
		patch.Value = value
	}

	if err := a.keys.Update(ctx, id, patch); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Println("Updated.")
	return nil
}

// Delete prompts for a credential id and removes the entry.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Credential id to delete", os.Stdout)
	if err != nil {
		return err
	}

	meta, err := a.keys.Delete(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	fmt.Printf("Deleted %s/%s\n", meta.AppName, meta.KeyName)
	return nil
}
