package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"qatysu.org/internal/audit"
	"qatysu.org/internal/directory"
)

type createEmployeeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *API) handleEmployeesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createEmployee(w, r)
	case http.MethodGet:
		a.listEmployees(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleEmployeeResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/employees/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	emp, err := a.dir.Get(r.Context(), id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (a *API) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id := strings.TrimSpace(req.ID)
	name := strings.TrimSpace(req.Name)
	if id == "" || name == "" {
		writeError(w, r, http.StatusBadRequest, "id and name are required")
		return
	}
	if len(id) > 64 || len(name) > 256 {
		writeError(w, r, http.StatusBadRequest, "id or name too long")
		return
	}

	emp, err := a.dir.Create(r.Context(), id, name)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "directory.employee.create", map[string]any{
		"employee_id": emp.ID,
	})

	w.Header().Set("Location", "/v1/employees/"+emp.ID)
	writeJSON(w, http.StatusCreated, emp)
}

func (a *API) listEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := a.dir.List(r.Context())
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	if emps == nil {
		emps = []directory.Employee{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": emps})
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, directory.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
