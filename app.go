package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/candidatos-info/cadastro/export"
	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/form"
	"github.com/candidatos-info/cadastro/importer"
	"github.com/candidatos-info/cadastro/list"
	"github.com/candidatos-info/cadastro/prompt"
	"github.com/candidatos-info/cadastro/status"
	"github.com/candidatos-info/cadastro/store"
	"github.com/candidatos-info/cadastro/users"
	"github.com/cheggaaa/pb"
	"github.com/fatih/color"
)

var (
	menu = []string{
		"1) Formulário de cadastro",
		"2) Lista de usuários",
		"3) Importar csv",
		"4) Exportar",
		"0) Sair",
	}
	listMenu = []string{
		"e ID) editar usuário",
		"r ID) remover usuário",
		"a) atualizar lista",
		"t) tentar novamente",
		"0) voltar",
	}
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
)

// app is the interactive client.
type app struct {
	store   *store.Store
	prompt  *prompt.Prompt
	out     io.Writer
	steps   bool
	storage filestorage.Config
	loading *loadingIndicator
}

func (a *app) run(ctx context.Context) {
	for ctx.Err() == nil {
		choice, ok := a.prompt.Choice("Cadastro de candidatos", menu)
		if !ok {
			return
		}
		switch choice {
		case "1":
			a.form(ctx, nil)
		case "2":
			a.list(ctx)
		case "3":
			a.importFile(ctx)
		case "4":
			a.exportFile(ctx)
		case "0":
			return
		default:
			red.Fprintf(a.out, "opção inválida [%s]\n", choice)
		}
	}
}

func (a *app) form(ctx context.Context, editing *users.User) {
	var opts []form.Option
	if a.steps {
		opts = append(opts, form.WithSteps())
	}
	c := form.New(a.store, editing, opts...)
	for ctx.Err() == nil {
		var fields []form.Field
		switch {
		case !a.steps:
			fields = append(append(fields, form.BasicFields...), form.ContactFields...)
		case c.Step() == form.StepBasic:
			fields = form.BasicFields
		default:
			fields = form.ContactFields
		}
		for _, f := range fields {
			a.askField(ctx, c, f)
		}
		if c.Step() == form.StepBasic {
			a.askEducation(c)
		}
		if !c.Final() {
			if _, err := c.Submit(ctx); err != nil {
				return
			}
			continue
		}
		if !a.prompt.Confirm("Enviar cadastro?") {
			if a.steps && a.prompt.Confirm("Voltar para a primeira etapa?") {
				c.Back()
				continue
			}
			c.Cancel()
			return
		}
		done, err := c.Submit(ctx)
		if err != nil {
			red.Fprintf(a.out, "Erro: %s\n", a.store.State().Error)
			if !a.prompt.Confirm("Tentar novamente?") {
				return
			}
			a.store.ClearError()
			if a.steps {
				c.Back()
			}
			continue
		}
		if done {
			green.Fprintln(a.out, "Cadastro salvo.")
			return
		}
	}
}

func (a *app) askField(ctx context.Context, c *form.Controller, f form.Field) {
	current := c.Value(f)
	if f != form.Photo {
		for {
			err := c.Set(f, a.prompt.Ask(f.Label(), current))
			if err == nil {
				return
			}
			red.Fprintln(a.out, err)
			if a.prompt.Done() {
				return
			}
		}
	}
	v := a.prompt.Ask("Foto (URL ou arquivo)", current)
	if v == current {
		return
	}
	info, err := os.Stat(v)
	if err != nil || info.IsDir() {
		if err := c.Set(form.Photo, v); err != nil {
			red.Fprintln(a.out, err)
		}
		return
	}
	file, err := os.Open(v)
	if err != nil {
		red.Fprintf(a.out, "falha ao abrir foto %s, erro %v\n", v, err)
		return
	}
	defer file.Close()
	if err := c.AttachPhoto(ctx, filepath.Base(v), file); err != nil {
		red.Fprintln(a.out, err)
	}
}

func (a *app) askEducation(c *form.Controller) {
	for i := range c.Draft().Education {
		a.askEducationEntry(c, i)
	}
	for a.prompt.Confirm("Adicionar outra formação?") {
		c.AddEducation()
		a.askEducationEntry(c, len(c.Draft().Education)-1)
	}
	if len(c.Draft().Education) < 2 {
		return
	}
	n := a.prompt.Ask("Remover formação número (vazio para nenhuma)", "")
	if n == "" {
		return
	}
	i, err := strconv.Atoi(n)
	if err != nil || !c.RemoveEducation(i-1) {
		red.Fprintf(a.out, "formação [%s] não removida\n", n)
	}
}

func (a *app) askEducationEntry(c *form.Controller, i int) {
	fmt.Fprintf(a.out, "Formação %d\n", i+1)
	e := c.Draft().Education[i]
	current := map[form.EducationField]string{
		form.Degree:         e.Degree,
		form.College:        e.College,
		form.GraduationYear: e.GraduationYear,
	}
	for _, f := range form.EducationFields {
		if err := c.SetEducation(i, f, a.prompt.Ask("  "+f.Label(), current[f])); err != nil {
			red.Fprintln(a.out, err)
		}
	}
}

func (a *app) list(ctx context.Context) {
	p := list.New(a.store, a.out, a.prompt)
	p.Show(ctx)
	for ctx.Err() == nil {
		choice, ok := a.prompt.Choice("Lista de usuários", listMenu)
		if !ok {
			return
		}
		fields := strings.Fields(choice)
		if len(fields) == 0 {
			continue
		}
		id := ""
		if len(fields) > 1 {
			id = fields[1]
		}
		switch fields[0] {
		case "e":
			u, ok := p.Edit(id)
			if !ok {
				red.Fprintf(a.out, "usuário [%s] não encontrado\n", id)
				continue
			}
			a.form(ctx, &u)
			p.Render()
		case "r":
			if _, ok := a.store.State().Find(id); !ok {
				red.Fprintf(a.out, "usuário [%s] não encontrado\n", id)
				continue
			}
			p.Delete(ctx, id)
			p.Render()
		case "a":
			a.store.FetchUsers(ctx)
			p.Render()
		case "t":
			p.Retry(ctx)
		case "0":
			return
		default:
			red.Fprintf(a.out, "opção inválida [%s]\n", choice)
		}
	}
}

func (a *app) importFile(ctx context.Context) {
	file := a.prompt.Ask("Arquivo csv", "")
	if file == "" {
		return
	}
	latin1 := a.prompt.Confirm("Arquivo codificado em ISO 8859-1?")
	a.loading.mute(true)
	defer a.loading.mute(false)
	if err := runImport(ctx, a.store, file, latin1); err != nil {
		red.Fprintln(a.out, err)
	}
}

func (a *app) exportFile(ctx context.Context) {
	file := a.prompt.Ask("Arquivo (.csv ou .pb)", "usuarios.csv")
	dest := a.prompt.Ask("Destino (s3://, gs://, drive://, diretório ou vazio para o arquivo local)", "")
	if err := runExport(ctx, a.store, file, dest, a.storage); err != nil {
		red.Fprintln(a.out, err)
	}
}

// runImport registers every candidate of a csv file, showing the
// progress on a bar.
func runImport(ctx context.Context, s *store.Store, file string, latin1 bool) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("falha ao abrir arquivo %s, erro %w", file, err)
	}
	defer f.Close()
	rows, err := importer.Read(f, importer.Options{Latin1: latin1})
	if err != nil {
		return err
	}
	all := importer.RemoveDuplicates(rows, file)
	bar := pb.Full.Start64(int64(len(all)))
	rep := importer.Import(ctx, s, all, func() { bar.Increment() })
	bar.Finish()
	log.Printf("file [%s], created [%d], failures [%d]\n", file, rep.Created, len(rep.Failures))
	if len(rep.Failures) > 0 {
		return fmt.Errorf("%d cadastros falharam, o primeiro [%s] com erro %w", len(rep.Failures), rep.Failures[0].FullName, rep.Failures[0].Err)
	}
	return nil
}

// runExport lists the users and writes them to file, or uploads them
// to dest when given.
func runExport(ctx context.Context, s *store.Store, file, dest string, cfg filestorage.Config) error {
	format, err := export.FormatOf(file)
	if err != nil {
		return err
	}
	if err := s.FetchUsers(ctx); err != nil {
		return err
	}
	all := s.State().Records
	if dest == "" {
		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("falha ao criar arquivo %s, erro %w", file, err)
		}
		if err := export.Write(all, format, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("falha ao fechar arquivo %s, erro %w", file, err)
		}
		log.Printf("%d usuários exportados para %s\n", len(all), file)
		return nil
	}
	storage, bucket, err := filestorage.Open(dest, cfg)
	if err != nil {
		return err
	}
	location, err := export.Upload(all, format, storage, bucket, filepath.Base(file))
	if err != nil {
		return err
	}
	log.Printf("%d usuários exportados para %s\n", len(all), location)
	return nil
}

// loadingIndicator spins on the terminal while the store is loading.
type loadingIndicator struct {
	sp    *spinner.Spinner
	muted int32
}

func newLoadingIndicator(w io.Writer) *loadingIndicator {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	sp.Suffix = " " + status.Text(status.Loading)
	return &loadingIndicator{sp: sp}
}

func (l *loadingIndicator) show(st users.State) {
	if atomic.LoadInt32(&l.muted) == 1 || !st.Loading {
		l.sp.Stop()
		return
	}
	l.sp.Start()
}

// mute keeps the spinner off, while a progress bar is shown.
func (l *loadingIndicator) mute(m bool) {
	if m {
		atomic.StoreInt32(&l.muted, 1)
		l.sp.Stop()
		return
	}
	atomic.StoreInt32(&l.muted, 0)
}
