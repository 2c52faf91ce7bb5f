package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/fatih/color"
)

var getMultiline = GetMultiline

func (a *App) requireVault() (*models.Vault, bool) {
	v := a.currentVault()
	if v == nil {
		a.printf("%s", failureMsg("no vault selected")+hintMsg("Use "+color.YellowString("unlock <vault>")+" first"))
		return nil, false
	}
	return v, true
}

// List shows the sealed artifacts of the current vault. Nothing is
// decrypted here.
func (a *App) List(ctx context.Context) error {
	v, ok := a.requireVault()
	if !ok {
		return nil
	}

	list, cached, err := a.artifactService.List(ctx, v.ID)
	if err != nil {
		a.printf("%s", describeError(err))
		return err
	}

	a.mu.Lock()
	a.artifacts = list
	a.mu.Unlock()

	if len(list) == 0 {
		a.printf("%s", hintMsg("Vault "+color.CyanString(v.Name)+" is empty"))
		return nil
	}
	if cached {
		a.printf("%s", hintMsg("Offline: showing cached artifacts"))
	}
	for i, art := range list {
		kind := "text"
		if art.MessageType == models.MessageTypeS3Object {
			kind = "file"
		}
		a.printf("%3d. %-5s %s  %s\n", i+1, kind, art.CreatedAt.Local().Format("2006-01-02 15:04:05"), art.ID)
	}
	return nil
}

// AddText reads a multi-line secret and stores it sealed.
func (a *App) AddText(ctx context.Context) error {
	v, ok := a.requireVault()
	if !ok {
		return nil
	}

	text, err := getMultiline(a.reader, "Enter secret text", a.out)
	if err != nil {
		return err
	}

	art, err := a.artifactService.AddText(ctx, v.ID, text)
	if err != nil {
		a.printf("%s", describeError(err))
		return err
	}
	a.forgetArtifacts()
	a.printf("%s", successMsg("Secret stored ("+art.ID+")"))
	return nil
}

// AddFile encrypts and uploads the file at path.
func (a *App) AddFile(ctx context.Context, path string) error {
	v, ok := a.requireVault()
	if !ok {
		return nil
	}

	s, stop := startSpinner(a.out, "Encrypting and uploading...")
	defer stop()

	art, err := a.artifactService.AddFile(ctx, v.ID, path)
	if err != nil {
		s.FinalMSG = describeError(err)
		return err
	}
	a.forgetArtifacts()
	s.FinalMSG = successMsg("File stored (" + art.ID + ")")
	return nil
}

func (a *App) forgetArtifacts() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.artifacts = nil
}

// resolveArtifact accepts a number from the last listing or an id.
func (a *App) resolveArtifact(ref string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(a.artifacts) {
		return a.artifacts[n-1].ID
	}
	return ref
}

// Reveal decrypts one artifact and prints it.
func (a *App) Reveal(ctx context.Context, ref string) error {
	v, ok := a.requireVault()
	if !ok {
		return nil
	}

	p, err := a.artifactService.Reveal(ctx, v.ID, a.resolveArtifact(ref))
	if err != nil {
		a.printf("%s", describeError(err))
		return err
	}

	switch p := p.(type) {
	case models.TextMessage:
		a.printf("%s\n", p.Text)
	case models.ObjectLink:
		a.printf("file: %s (%d bytes)\n", p.FileName, p.Size)
		a.printf("%s", hintMsg("Use "+color.YellowString("download "+ref)+" to save it"))
	default:
		err := fmt.Errorf("%w: %T", models.ErrUnknownPayload, p)
		a.printf("%s", describeError(err))
		return err
	}
	return nil
}

// Download saves the decrypted file behind a file artifact.
func (a *App) Download(ctx context.Context, ref string) error {
	v, ok := a.requireVault()
	if !ok {
		return nil
	}

	s, stop := startSpinner(a.out, "Downloading and decrypting...")
	defer stop()

	path, err := a.artifactService.Download(ctx, v.ID, a.resolveArtifact(ref), a.downloadDir)
	if err != nil {
		s.FinalMSG = describeError(err)
		return err
	}
	s.FinalMSG = successMsg("Saved to " + path)
	return nil
}
