// Package mockapi is an in-memory stand-in for the backends used by
// the registration client: a json-server style collection under
// /users and a CMS flavored one under /api/user-details.
package mockapi

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/candidatos-info/cadastro/users"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

// Server holds the collections served by the mock API.
type Server struct {
	rest   usersRepository
	cms    usersRepository
	now    func() time.Time
	mu     sync.RWMutex
	media  map[int]users.Media
	blobs  map[string][]byte
	nextID int
}

// New returns an empty mock API.
func New() *Server {
	return &Server{
		rest:  newInMemoryRepository(uuidIDs()),
		cms:   newInMemoryRepository(sequentialIDs()),
		now:   time.Now,
		media: make(map[int]users.Media),
		blobs: make(map[string][]byte),
	}
}

// Echo returns the router of the mock API. Requests need basic auth
// when userName is not empty.
func (s *Server) Echo(userName, password string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if userName != "" {
		e.Use(middleware.BasicAuth(func(u, p string, c echo.Context) (bool, error) {
			return u == userName && p == password, nil
		}))
	}
	e.GET("/users", s.listUsers)
	e.GET("/users/:id", s.getUser)
	e.POST("/users", s.createUser)
	e.PUT("/users/:id", s.updateUser)
	e.DELETE("/users/:id", s.deleteUser)

	e.GET("/api/user-details", s.listDetails)
	e.GET("/api/user-details/:id", s.getDetail)
	e.POST("/api/user-details", s.createDetail)
	e.PUT("/api/user-details/:id", s.updateDetail)
	e.DELETE("/api/user-details/:id", s.deleteDetail)
	e.POST("/api/upload", s.upload)
	e.GET("/uploads/:name", s.uploaded)
	return e
}

func decodeUser(c echo.Context) (users.User, error) {
	var u users.User
	if err := json.NewDecoder(c.Request().Body).Decode(&u); err != nil {
		return u, fmt.Errorf("corpo da requisição inválido, erro %v", err)
	}
	return u, nil
}

func (s *Server) listUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, s.rest.list())
}

func (s *Server) getUser(c echo.Context) error {
	u, ok := s.rest.get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) createUser(c echo.Context) error {
	u, err := decodeUser(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}
	return c.JSON(http.StatusCreated, s.rest.insert(u))
}

func (s *Server) updateUser(c echo.Context) error {
	u, err := decodeUser(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}
	saved, ok := s.rest.replace(c.Param("id"), u)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteUser(c echo.Context) error {
	if !s.rest.remove(c.Param("id")) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{})
}

// CMS shapes

type cmsEntry struct {
	ID         int        `json:"id"`
	Attributes users.User `json:"attributes"`
}

type cmsError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func cmsFail(c echo.Context, status int, name, message string) error {
	return c.JSON(status, map[string]interface{}{
		"data":  nil,
		"error": cmsError{Status: status, Name: name, Message: message},
	})
}

func toEntry(u users.User) cmsEntry {
	id, _ := strconv.Atoi(u.ID)
	u.ID = ""
	return cmsEntry{ID: id, Attributes: u}
}

func (s *Server) listDetails(c echo.Context) error {
	all := s.cms.list()
	data := make([]cmsEntry, 0, len(all))
	for _, u := range all {
		data = append(data, toEntry(s.populate(u)))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{
			"pagination": map[string]int{"page": 1, "pageSize": len(data), "pageCount": 1, "total": len(data)},
		},
	})
}

func (s *Server) getDetail(c echo.Context) error {
	u, ok := s.cms.get(c.Param("id"))
	if !ok {
		return cmsFail(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": toEntry(s.populate(u))})
}

func (s *Server) decodeDetail(c echo.Context) (users.User, error) {
	var req struct {
		Data *users.User `json:"data"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return users.User{}, fmt.Errorf("corpo da requisição inválido, erro %v", err)
	}
	if req.Data == nil {
		return users.User{}, fmt.Errorf("missing \"data\" payload in the request body")
	}
	return *req.Data, validate(*req.Data)
}

// validate applies the required attributes of the CMS schema.
func validate(u users.User) error {
	if strings.TrimSpace(u.FullName) == "" {
		return fmt.Errorf("fullName must be defined")
	}
	if u.Gender != "" && !u.Gender.Valid() {
		return fmt.Errorf("gender must be one of the following values: male, female")
	}
	for i, e := range u.Education {
		if e.Degree == "" || e.College == "" || e.GraduationYear == "" {
			return fmt.Errorf("education[%d] must have degree, college and graduationYear", i)
		}
	}
	return nil
}

func (s *Server) createDetail(c echo.Context) error {
	u, err := s.decodeDetail(c)
	if err != nil {
		return cmsFail(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	now := s.now().UTC().Format(time.RFC3339)
	u.CreatedAt, u.UpdatedAt, u.PublishedAt = now, now, now
	s.numberEducation(&u)
	saved := s.cms.insert(u)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": toEntry(s.populate(saved))})
}

func (s *Server) updateDetail(c echo.Context) error {
	id := c.Param("id")
	current, ok := s.cms.get(id)
	if !ok {
		return cmsFail(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	u, err := s.decodeDetail(c)
	if err != nil {
		return cmsFail(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	u.CreatedAt, u.PublishedAt = current.CreatedAt, current.PublishedAt
	u.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.numberEducation(&u)
	saved, _ := s.cms.replace(id, u)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": toEntry(s.populate(saved))})
}

func (s *Server) deleteDetail(c echo.Context) error {
	id := c.Param("id")
	u, ok := s.cms.get(id)
	if !ok || !s.cms.remove(id) {
		return cmsFail(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": toEntry(u)})
}

// numberEducation gives component ids to new education entries.
func (s *Server) numberEducation(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range u.Education {
		if u.Education[i].ID == "" {
			s.nextID++
			u.Education[i].ID = strconv.Itoa(s.nextID)
		}
	}
}

// populate replaces a media id by the stored media object.
func (s *Server) populate(u users.User) users.User {
	if u.Photo == nil || u.Photo.Media == nil {
		return u
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.media[u.Photo.Media.ID]; ok {
		u.Photo = &users.Photo{Media: &m}
	}
	return u
}

func (s *Server) upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return cmsFail(c, http.StatusBadRequest, "ValidationError", "Files are empty")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return cmsFail(c, http.StatusBadRequest, "ValidationError", "Files are empty")
	}
	var out []users.Media
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return cmsFail(c, http.StatusInternalServerError, "ApplicationError", err.Error())
		}
		b, err := ioutil.ReadAll(f)
		f.Close()
		if err != nil {
			return cmsFail(c, http.StatusInternalServerError, "ApplicationError", err.Error())
		}
		now := s.now().UTC().Format(time.RFC3339)
		s.mu.Lock()
		s.nextID++
		id := s.nextID
		ext := filepath.Ext(fh.Filename)
		hash := fmt.Sprintf("photo_%d", id)
		m := users.Media{
			ID:        id,
			Name:      fh.Filename,
			Hash:      hash,
			Ext:       ext,
			Mime:      http.DetectContentType(b),
			Size:      float64(len(b)) / 1000,
			URL:       "/uploads/" + hash + ext,
			Provider:  "local",
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.media[id] = m
		s.blobs[hash+ext] = b
		s.mu.Unlock()
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) uploaded(c echo.Context) error {
	s.mu.RLock()
	b, ok := s.blobs[c.Param("name")]
	s.mu.RUnlock()
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, http.DetectContentType(b), b)
}

// Seed inserts the given users in both collections.
func (s *Server) Seed(all []users.User) {
	now := s.now().UTC().Format(time.RFC3339)
	for _, u := range all {
		s.rest.insert(u)
		u = u.Clone()
		u.CreatedAt, u.UpdatedAt, u.PublishedAt = now, now, now
		s.numberEducation(&u)
		s.cms.insert(u)
	}
}
