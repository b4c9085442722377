package main

import (
	"flag"
	"log"
	"os"

	"github.com/candidatos-info/cadastro/importer"
	"github.com/candidatos-info/cadastro/mockapi"
)

func main() {
	seed := flag.String("seed", "", "arquivo csv com usuários iniciais")
	latin1 := flag.Bool("latin1", false, "arquivo csv codificado em ISO 8859-1")
	userName := flag.String("username", os.Getenv("USER_NAME"), "user name para basic auth (opcional)")
	password := flag.String("password", os.Getenv("PASSWORD"), "senha para basic auth")
	flag.Parse()
	if *userName != "" && *password == "" {
		log.Fatal("informe a senha de basic auth")
	}
	s := mockapi.New()
	if *seed != "" {
		f, err := os.Open(*seed)
		if err != nil {
			log.Fatalf("falha ao abrir arquivo %s, erro %q", *seed, err)
		}
		rows, err := importer.Read(f, importer.Options{Latin1: *latin1})
		f.Close()
		if err != nil {
			log.Fatalf("falha ao ler arquivo %s, erro %q", *seed, err)
		}
		s.Seed(importer.RemoveDuplicates(rows, *seed))
	}
	e := s.Echo(*userName, *password)
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "3001"
	}
	log.Println("server online at ", port)
	log.Fatal(e.Start(":" + port))
}
