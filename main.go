package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/candidatos-info/cadastro/config"
	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/localstore"
	"github.com/candidatos-info/cadastro/prompt"
	"github.com/candidatos-info/cadastro/store"
	"github.com/candidatos-info/cadastro/userapi"
)

func main() {
	cfg := config.FromEnv()
	backend := flag.String("backend", cfg.Backend, "backend usado: strapi, rest ou local")
	apiURL := flag.String("api", "", "endereço do backend remoto (padrão depende do backend)")
	storageFile := flag.String("arquivo", cfg.StorageFile, "arquivo usado pelo backend local")
	photoStorage := flag.String("fotos", cfg.PhotoStorage, "destino das fotos do backend rest (s3://, gs://, drive:// ou diretório)")
	steps := flag.Bool("etapas", cfg.Steps, "formulário em duas etapas")
	importFile := flag.String("importar", "", "arquivo csv a ser importado")
	latin1 := flag.Bool("latin1", false, "arquivo csv codificado em ISO 8859-1")
	exportFile := flag.String("exportar", "", "arquivo .csv ou .pb a ser gerado com os usuários")
	exportTo := flag.String("destino", "", "destino da exportação (s3://, gs://, drive:// ou diretório)")
	flag.Parse()
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	} else if *backend != cfg.Backend {
		cfg.APIURL = ""
	}
	cfg.Backend = *backend
	cfg.FillAPIURL()
	cfg.StorageFile = *storageFile
	cfg.PhotoStorage = *photoStorage
	cfg.Steps = *steps
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	client, err := newClient(cfg)
	if err != nil {
		log.Fatalf("falha ao criar cliente do backend %s, erro %q", cfg.Backend, err)
	}
	s := store.New(client)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch {
	case *importFile != "":
		if err := runImport(ctx, s, *importFile, *latin1); err != nil {
			log.Fatalf("falha ao importar %s, erro %v", *importFile, err)
		}
	case *exportFile != "":
		if err := runExport(ctx, s, *exportFile, *exportTo, cfg.FileStorage); err != nil {
			log.Fatalf("falha ao exportar %s, erro %v", *exportFile, err)
		}
	default:
		loading := newLoadingIndicator(os.Stderr)
		unsubscribe := s.Subscribe(loading.show)
		a := &app{
			store:   s,
			prompt:  prompt.New(os.Stdin, os.Stdout),
			out:     os.Stdout,
			steps:   cfg.Steps,
			storage: cfg.FileStorage,
			loading: loading,
		}
		a.run(ctx)
		unsubscribe()
		loading.mute(true)
	}
}

// newClient returns the remote data client of the configured backend.
func newClient(cfg config.Config) (userapi.Client, error) {
	switch cfg.Backend {
	case config.BackendStrapi:
		return userapi.NewStrapi(cfg.APIURL), nil
	case config.BackendREST:
		var opts []userapi.Option
		if cfg.PhotoStorage != "" {
			fs, bucket, err := filestorage.Open(cfg.PhotoStorage, cfg.FileStorage)
			if err != nil {
				return nil, fmt.Errorf("falha ao abrir destino das fotos %s, erro %w", cfg.PhotoStorage, err)
			}
			opts = append(opts, userapi.WithPhotoStorage(fs, bucket))
		}
		return userapi.NewREST(cfg.APIURL, opts...), nil
	}
	return localstore.New(cfg.StorageFile), nil
}
