// Package form keeps the uncommitted draft of the registration form
// and submits it through the user store.
package form

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
)

// Submitter is the part of the user store used by the form.
type Submitter interface {
	CreateUser(ctx context.Context, draft users.User) (users.User, error)
	UpdateUser(ctx context.Context, u users.User) (users.User, error)
	UploadPhoto(ctx context.Context, name string, r io.Reader) (userapi.Upload, error)
}

// Step of the two-step form
type Step int

const (
	// StepBasic holds the candidate profile fields
	StepBasic Step = iota

	// StepContact holds the contact fields, it is the final step
	StepContact
)

// Option configures a Controller.
type Option func(*Controller)

// WithSteps splits the form in a basic and a contact step. Stepping
// changes nothing in the draft, only when the store is called.
func WithSteps() Option {
	return func(c *Controller) {
		c.stepped = true
	}
}

// Controller owns the draft of one user.
type Controller struct {
	store   Submitter
	editing *users.User
	draft   users.User
	stepped bool
	step    Step
}

// New returns a controller editing a copy of editing, or a new
// registration when editing is nil.
func New(store Submitter, editing *users.User, opts ...Option) *Controller {
	c := &Controller{store: store}
	if editing != nil {
		e := editing.Clone()
		c.editing = &e
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.step = StepBasic
	if c.editing == nil {
		c.draft = users.NewDraft()
		return
	}
	c.draft = c.editing.Clone()
	if c.draft.Gender == "" {
		c.draft.Gender = users.Male
	}
	if len(c.draft.Education) == 0 {
		c.draft.Education = []users.Education{{}}
	}
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() users.User {
	return c.draft.Clone()
}

// Editing reports whether the form edits an existing record.
func (c *Controller) Editing() bool {
	return c.editing != nil
}

// Step returns the current step. Forms without steps are always on
// StepBasic.
func (c *Controller) Step() Step {
	return c.step
}

// Final reports whether a submit will reach the store.
func (c *Controller) Final() bool {
	return !c.stepped || c.step == StepContact
}

// Back returns to the basic step.
func (c *Controller) Back() {
	c.step = StepBasic
}

// Set changes one top-level field of the draft.
func (c *Controller) Set(f Field, value string) error {
	d := &c.draft
	switch f {
	case FullName:
		d.FullName = value
	case Constituency:
		d.Constituency = value
	case Party:
		d.Party = value
	case Position:
		d.Position = value
	case DateOfBirth:
		d.DateOfBirth = value
	case Gender:
		g := users.Gender(value)
		if !g.Valid() {
			return fmt.Errorf("gênero inválido [%s], use %s ou %s", value, users.Male, users.Female)
		}
		d.Gender = g
	case Vision:
		d.Vision = value
	case Photo:
		if value == "" {
			d.Photo = nil
		} else {
			d.Photo = users.NewPhotoURL(value)
		}
	case Phone:
		d.Phone = value
	case Email:
		d.Email = value
	case Address:
		d.Address = value
	case City:
		d.City = value
	case State:
		d.State = value
	case ZipCode:
		d.ZipCode = value
	default:
		return fmt.Errorf("campo desconhecido %d", f)
	}
	return nil
}

// SetEducation changes one field of the education entry at i.
func (c *Controller) SetEducation(i int, f EducationField, value string) error {
	if i < 0 || i >= len(c.draft.Education) {
		return fmt.Errorf("formação %d não existe", i)
	}
	e := &c.draft.Education[i]
	switch f {
	case Degree:
		e.Degree = value
	case College:
		e.College = value
	case GraduationYear:
		e.GraduationYear = value
	default:
		return fmt.Errorf("campo de formação desconhecido %d", f)
	}
	return nil
}

// AddEducation appends a blank education entry.
func (c *Controller) AddEducation() {
	c.draft.Education = append(c.draft.Education, users.Education{})
}

// RemoveEducation removes the entry at i. It refuses to remove the
// last remaining entry and reports whether something was removed.
func (c *Controller) RemoveEducation(i int) bool {
	if len(c.draft.Education) < 2 || i < 0 || i >= len(c.draft.Education) {
		return false
	}
	c.draft.Education = append(c.draft.Education[:i:i], c.draft.Education[i+1:]...)
	return true
}

// AttachPhoto uploads the photo read from r through the store and
// points the draft to it.
func (c *Controller) AttachPhoto(ctx context.Context, name string, r io.Reader) error {
	up, err := c.store.UploadPhoto(ctx, name, r)
	if err != nil {
		return fmt.Errorf("falha ao enviar foto %s, erro %w", name, err)
	}
	p := users.NewPhotoURL(up.URL)
	if id, err := strconv.Atoi(up.ID); err == nil {
		p.Media = &users.Media{ID: id, URL: up.URL}
	}
	c.draft.Photo = p
	return nil
}

// Submit advances to the contact step when the form has steps and is
// on the first one, returning false. On the final step it sends the
// draft to the store: an update when editing, otherwise a create
// followed by a reset of the draft. Failures are only logged and
// returned, the store error is what the user sees.
func (c *Controller) Submit(ctx context.Context) (bool, error) {
	if !c.Final() {
		c.step = StepContact
		return false, nil
	}
	if c.editing != nil {
		u := c.draft.Clone()
		u.ID = c.editing.ID
		if _, err := c.store.UpdateUser(ctx, u); err != nil {
			log.Printf("falha ao atualizar cadastro [%s], erro %v\n", u.ID, err)
			return false, err
		}
		return true, nil
	}
	if _, err := c.store.CreateUser(ctx, c.draft.Clone()); err != nil {
		log.Printf("falha ao enviar cadastro, erro %v\n", err)
		return false, err
	}
	c.reset()
	return true, nil
}

// Cancel discards the draft.
func (c *Controller) Cancel() {
	c.reset()
}
