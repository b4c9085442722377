package filestorage

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

type localStorage struct {
}

// NewLocalStorage returns a new local storage instance. Buckets are
// directories.
func NewLocalStorage() FileStorage {
	return &localStorage{}
}

// Upload writes the bytes on bucket/fileName, creating the bucket
// directory when needed.
func (ls *localStorage) Upload(b []byte, bucket, fileName string) (string, error) {
	_, err := os.Stat(bucket) // checking if bucket exists
	if os.IsNotExist(err) {
		if err := os.MkdirAll(bucket, 0755); err != nil {
			return "", fmt.Errorf("falha ao criar diretório %s, erro %q", bucket, err)
		}
	}
	name := filepath.Join(bucket, fileName)
	if err := ioutil.WriteFile(name, b, 0644); err != nil {
		return "", fmt.Errorf("falha ao salvar arquivo %s no caminho %s, erro %q", fileName, name, err)
	}
	return name, nil
}

// FileExists checks if file exists. If file exists
// it returns true, else false
func (ls *localStorage) FileExists(bucket, fileName string) bool {
	_, err := os.Stat(filepath.Join(bucket, fileName))
	return err == nil
}
