// Package export writes snapshots of the registered users.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/importer"
	"github.com/candidatos-info/cadastro/users"
	"github.com/gocarina/gocsv"
	"github.com/golang/protobuf/proto"
	"github.com/matryer/try"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	maxAttempts = 5   // number of times to retry an upload
	maxCopies   = 100 // snapshots with the same name kept in a bucket
)

// Format of a snapshot
type Format string

const (
	// CSV writes one line per education entry, readable by the importer
	CSV Format = "csv"

	// Protobuf writes a google.protobuf.ListValue of user structs
	Protobuf Format = "pb"
)

// FormatOf returns the format matching the extension of fileName.
func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "csv":
		return CSV, nil
	case "pb":
		return Protobuf, nil
	}
	return "", fmt.Errorf("formato de exportação não suportado para arquivo %s, use .csv ou .pb", fileName)
}

// Write encodes all in the given format on w.
func Write(all []users.User, format Format, w io.Writer) error {
	switch format {
	case CSV:
		rows := importer.Rows(all)
		if err := gocsv.Marshal(&rows, w); err != nil {
			return fmt.Errorf("falha ao escrever csv de usuários, erro %w", err)
		}
		return nil
	case Protobuf:
		list, err := toListValue(all)
		if err != nil {
			return err
		}
		b, err := proto.Marshal(list)
		if err != nil {
			return fmt.Errorf("falha ao serializar usuários, erro %w", err)
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("falha ao escrever bytes de usuários, erro %w", err)
		}
		return nil
	}
	return fmt.Errorf("formato de exportação desconhecido [%s]", format)
}

// Read decodes a protobuf snapshot written by Write.
func Read(b []byte) ([]users.User, error) {
	var list structpb.ListValue
	if err := proto.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("falha ao decodificar snapshot, erro %w", err)
	}
	j, err := json.Marshal(list.AsSlice())
	if err != nil {
		return nil, fmt.Errorf("falha ao converter snapshot, erro %w", err)
	}
	var all []users.User
	if err := json.Unmarshal(j, &all); err != nil {
		return nil, fmt.Errorf("falha ao converter snapshot, erro %w", err)
	}
	return all, nil
}

// Upload writes the snapshot to a file storage bucket, retrying
// failed uploads, and returns its location. A snapshot already in the
// bucket is never replaced, the new one gets a numbered name.
func Upload(all []users.User, format Format, storage filestorage.FileStorage, bucket, fileName string) (string, error) {
	var buf bytes.Buffer
	if err := Write(all, format, &buf); err != nil {
		return "", err
	}
	fileName, err := freeName(storage, bucket, fileName)
	if err != nil {
		return "", err
	}
	var location string
	err = try.Do(func(attempt int) (bool, error) {
		var err error
		location, err = storage.Upload(buf.Bytes(), bucket, fileName)
		return attempt < maxAttempts, err
	})
	if err != nil {
		return "", fmt.Errorf("falha ao salvar snapshot [%s] no bucket [%s], erro %w", fileName, bucket, err)
	}
	return location, nil
}

// freeName returns fileName, or the first of name-1.ext, name-2.ext...
// not yet stored in bucket.
func freeName(storage filestorage.FileStorage, bucket, fileName string) (string, error) {
	if !storage.FileExists(bucket, fileName) {
		return fileName, nil
	}
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	for i := 1; i <= maxCopies; i++ {
		name := fmt.Sprintf("%s-%d%s", base, i, ext)
		if !storage.FileExists(bucket, name) {
			log.Printf("snapshot [%s] já existe no bucket [%s], salvando como [%s]\n", fileName, bucket, name)
			return name, nil
		}
	}
	return "", fmt.Errorf("falha ao escolher nome para snapshot [%s] no bucket [%s], %d cópias já existem", fileName, bucket, maxCopies)
}

// toListValue goes through JSON so the struct keeps the same field
// names as the API payloads.
func toListValue(all []users.User) (*structpb.ListValue, error) {
	j, err := json.Marshal(all)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar usuários, erro %w", err)
	}
	var generic []interface{}
	if err := json.Unmarshal(j, &generic); err != nil {
		return nil, fmt.Errorf("falha ao converter usuários, erro %w", err)
	}
	list, err := structpb.NewList(generic)
	if err != nil {
		return nil, fmt.Errorf("falha ao converter usuários para protobuf, erro %w", err)
	}
	return list, nil
}
