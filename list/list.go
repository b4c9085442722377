// Package list renders the registered users and triggers the delete
// and edit actions through the user store.
package list

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/candidatos-info/cadastro/status"
	"github.com/candidatos-info/cadastro/users"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

const deleteQuestion = "Tem certeza que deseja remover este usuário?"

// Source is the part of the user store used by the list.
type Source interface {
	State() users.State
	FetchUsers(ctx context.Context) error
	DeleteUser(ctx context.Context, id string) error
	Retry(ctx context.Context) error
}

// Confirmer asks a blocking yes/no question.
type Confirmer interface {
	Confirm(question string) bool
}

// Presenter is the list view.
type Presenter struct {
	store   Source
	w       io.Writer
	confirm Confirmer
	shown   bool
}

// New returns a presenter writing on w.
func New(store Source, w io.Writer, confirm Confirmer) *Presenter {
	return &Presenter{
		store:   store,
		w:       w,
		confirm: confirm,
	}
}

// Show lists the users from the backend the first time it is called
// and renders the current state.
func (p *Presenter) Show(ctx context.Context) error {
	var err error
	if !p.shown {
		p.shown = true
		err = p.store.FetchUsers(ctx)
	}
	p.Render()
	return err
}

// Render writes the current state of the store.
func (p *Presenter) Render() {
	st := p.store.State()
	switch status.Of(st) {
	case status.Loading:
		fmt.Fprintln(p.w, status.Text(status.Loading))
		return
	case status.Failed:
		color.New(color.FgRed).Fprintf(p.w, "Erro: %s\n", st.Error)
		return
	}
	color.New(color.FgYellow).Fprintln(p.w, "\nUsuários cadastrados")
	if len(st.Records) == 0 {
		fmt.Fprintln(p.w, "Nenhum usuário cadastrado.")
		return
	}
	table := tablewriter.NewWriter(p.w)
	table.SetHeader([]string{"ID", "Nome", "Distrito", "Partido", "Cargo", "Nascimento", "Gênero"})
	table.SetAutoWrapText(false)
	for _, u := range st.Records {
		table.Append([]string{u.ID, u.FullName, u.Constituency, u.Party, u.Position, u.DateOfBirth, string(u.Gender)})
	}
	table.Render()
	for _, u := range st.Records {
		p.details(u)
	}
}

func (p *Presenter) details(u users.User) {
	if u.Vision == "" && len(u.Education) == 0 {
		return
	}
	fmt.Fprintf(p.w, "\n%s (%s)\n", u.FullName, u.ID)
	if u.Vision != "" {
		fmt.Fprintf(p.w, "  Visão: %s\n", u.Vision)
	}
	if len(u.Education) > 0 {
		fmt.Fprintln(p.w, "  Formação:")
		for _, e := range u.Education {
			fmt.Fprintf(p.w, "    %s em %s (%s)\n", e.Degree, e.College, e.GraduationYear)
		}
	}
	var contact []string
	for _, v := range []string{u.Phone, u.Email, u.City, u.State} {
		if v != "" {
			contact = append(contact, v)
		}
	}
	if len(contact) > 0 {
		fmt.Fprintf(p.w, "  Contato: %s\n", strings.Join(contact, ", "))
	}
}

// Delete asks for confirmation and only then removes the user. It
// reports whether the delete was issued.
func (p *Presenter) Delete(ctx context.Context, id string) (bool, error) {
	if !p.confirm.Confirm(deleteQuestion) {
		return false, nil
	}
	return true, p.store.DeleteUser(ctx, id)
}

// Retry clears the error and lists the users again.
func (p *Presenter) Retry(ctx context.Context) error {
	err := p.store.Retry(ctx)
	p.Render()
	return err
}

// Edit returns the user to be edited by the form.
func (p *Presenter) Edit(id string) (users.User, bool) {
	return p.store.State().Find(id)
}
