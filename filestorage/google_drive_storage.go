package filestorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type googleDrive struct {
	service *drive.Service
}

// NewGoogleDriveStorage returns a new client to execute file operations
// with Google Drive.
func NewGoogleDriveStorage(credentialsFile, oauthToken string) (FileStorage, error) {
	b, err := ioutil.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler arquivo de crendenciais [%s], erro %q", credentialsFile, err)
	}
	config, err := google.ConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("falha ao processar configuraçōes usando o arquivo [%s], erro %q", credentialsFile, err)
	}
	f, err := os.Open(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir arquivo de token oauth [%s], erro %q", oauthToken, err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err = json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("falha ao fazer bind do token OAuth, erro %q", err)
	}
	ctx := context.Background()
	service, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("não foi possível criar Google Drive service, erro %q", err)
	}
	return &googleDrive{
		service: service,
	}, nil
}

// the bucket argument for Google Drive is the folder ID.
func (gd *googleDrive) Upload(b []byte, bucket, fileName string) (string, error) {
	f := &drive.File{
		MimeType: "application/octet-stream",
		Name:     fileName,
		Parents:  []string{bucket},
	}
	created, err := gd.service.Files.Create(f).Media(bytes.NewReader(b)).Fields("id", "webContentLink").Do()
	if err != nil {
		return "", fmt.Errorf("falha ao enviar arquivo [%s] para pasta [%s] do Google Drive, erro %v", fileName, bucket, err)
	}
	if created.WebContentLink != "" {
		return created.WebContentLink, nil
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s", created.Id), nil
}

func (gd *googleDrive) FileExists(bucket, fileName string) bool {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(fileName), escapeQuery(bucket))
	res, err := gd.service.Files.List().Q(q).Fields("files(id)").PageSize(1).Do()
	if err != nil {
		return false
	}
	return len(res.Files) > 0
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
