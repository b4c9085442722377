package status

import "github.com/candidatos-info/cadastro/users"

// Status is a custom type to represent the possible status of the
// user store
type Status int

const (
	// Idle means no operation is in flight and the last one succeeded
	Idle Status = 0

	// Loading means an operation is waiting for the backend
	Loading Status = 1

	// Failed means the last operation to settle has failed
	Failed Status = 2
)

var (
	statusText = map[Status]string{
		Idle:    "Pronto",
		Loading: "Carregando...",
		Failed:  "Erro",
	}
)

// Text returns a text for a status. It returns the empty
// string if the status is unknown.
func Text(status Status) string {
	return statusText[status]
}

// Of derives the status of a store state. Loading wins over a stale
// error.
func Of(s users.State) Status {
	if s.Loading {
		return Loading
	}
	if s.Error != "" {
		return Failed
	}
	return Idle
}
